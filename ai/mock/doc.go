// Package mock provides test doubles for the ai interfaces. The defaults are
// deterministic (same text, same vector or score) so tests stay reproducible
// without external AI services; function fields override behavior per test.
package mock
