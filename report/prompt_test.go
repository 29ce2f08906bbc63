package report

import (
	"testing"

	"github.com/poiesic/newsdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatches() []core.Match {
	return []core.Match{
		{
			Document: &core.Document{
				URL:     "https://n.example/budget",
				Title:   "Council Approves Budget",
				Text:    "The council voted on Tuesday.",
				Authors: []string{"Jane Doe", "John Smith"},
			},
			Score: 0.9,
		},
		{
			Document: &core.Document{
				URL:   "https://n.example/transit",
				Title: "Transit Plan Expands",
				Text:  "Two new bus lines open next year.",
			},
			Score: 0.8,
		},
	}
}

func TestBuild(t *testing.T) {
	prompt := Build("city transit budget", sampleMatches(), Medium)

	assert.Equal(t, SystemPrompt, prompt.System)
	assert.Contains(t, prompt.User, "Here is what you will report on: city transit budget")
	assert.Contains(t, prompt.User, "Title: Council Approves Budget")
	assert.Contains(t, prompt.User, "The council voted on Tuesday.")
	assert.Contains(t, prompt.User, "Your report should be medium.")

	// Context blocks appear in match order.
	assert.Less(t,
		indexOf(prompt.User, "Council Approves Budget"),
		indexOf(prompt.User, "Transit Plan Expands"))
}

func TestBuild_Sources(t *testing.T) {
	prompt := Build("q", sampleMatches(), Short)

	require.Contains(t, prompt.Sources, "SOURCES:")
	assert.Contains(t, prompt.Sources, `"Council Approves Budget" by Jane Doe, John Smith`)
	assert.Contains(t, prompt.Sources, "https://n.example/budget")
	// Documents without authors are attributed to Unknown.
	assert.Contains(t, prompt.Sources, `"Transit Plan Expands" by Unknown`)
}

func TestBuild_DefaultLength(t *testing.T) {
	prompt := Build("q", nil, "")
	assert.Contains(t, prompt.User, "Your report should be short.")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
