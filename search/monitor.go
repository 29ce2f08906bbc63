package search

import (
	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(q Query)
	AfterScan(stats storage.ScanStats)
	Hit(doc *core.Document, score float32)
	Finish(matches []core.Match)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                   {}
func (n *noopMonitor) AfterScan(_ storage.ScanStats)   {}
func (n *noopMonitor) Hit(_ *core.Document, _ float32) {}
func (n *noopMonitor) Finish(_ []core.Match)           {}
