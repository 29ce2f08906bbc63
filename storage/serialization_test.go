package storage

import (
	"testing"
	"time"

	"github.com/poiesic/newsdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	bias := 0.42
	doc := &core.Document{
		URL:         "https://news.example.com/story",
		Text:        "full article body",
		Source:      "Example News",
		Authors:     []string{"A. Writer", "B. Editor"},
		Title:       "A Headline",
		PublishedAt: time.Date(2026, 8, 10, 12, 30, 0, 0, time.UTC),
		Vector:      []float32{0.1, -0.2, 0.3},
		BiasScore:   &bias,
		Fingerprint: core.FingerprintText("full article body"),
		InsertedAt:  time.Date(2026, 8, 11, 9, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC),
	}

	data := MarshalDocument(doc)
	got, err := UnmarshalDocument(data)
	require.NoError(t, err)

	assert.Equal(t, doc.URL, got.URL)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.Source, got.Source)
	assert.Equal(t, doc.Authors, got.Authors)
	assert.Equal(t, doc.Title, got.Title)
	assert.True(t, got.PublishedAt.Equal(doc.PublishedAt))
	assert.Equal(t, doc.Vector, got.Vector)
	require.NotNil(t, got.BiasScore)
	assert.Equal(t, bias, *got.BiasScore)
	assert.Equal(t, doc.Fingerprint, got.Fingerprint)
	assert.True(t, got.InsertedAt.Equal(doc.InsertedAt))
	assert.True(t, got.UpdatedAt.Equal(doc.UpdatedAt))
}

func TestDocumentRoundTrip_OptionalFieldsAbsent(t *testing.T) {
	doc := &core.Document{
		URL:    "https://news.example.com/minimal",
		Text:   "body",
		Source: "Example News",
		Vector: []float32{1},
	}

	got, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)

	assert.Empty(t, got.Authors)
	assert.Empty(t, got.Title)
	assert.True(t, got.PublishedAt.IsZero())
	assert.Nil(t, got.BiasScore)
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.Document{
		URL:    "https://news.example.com/story",
		Text:   "body",
		Source: "Example News",
		Vector: []float32{1, 2, 3},
	}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.Error(t, err)
}

func TestDimensionRoundTrip(t *testing.T) {
	for _, dim := range []int{1, 3, 1536} {
		got, err := UnmarshalDimension(MarshalDimension(dim))
		require.NoError(t, err)
		assert.Equal(t, dim, got)
	}
}
