package openai

import "strings"

// clipText truncates s to at most max characters, cutting back to the last
// word boundary so the model never sees a half word.
func clipText(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}

	clipped := s[:max]
	if idx := strings.LastIndexByte(clipped, ' '); idx > 0 {
		clipped = clipped[:idx]
	}
	return strings.TrimSpace(clipped)
}
