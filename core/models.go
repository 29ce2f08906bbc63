package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a 64-bit content hash of an article's extracted text.
// It is used to detect unchanged content when a URL is re-ingested, so the
// stored embedding can be reused instead of recomputed.
type Fingerprint uint64

// FingerprintText computes a deterministic Fingerprint from article text
// using BLAKE2b hashing. Identical text always produces the same value.
func FingerprintText(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// Document represents one ingested news article. The URL is the primary key;
// re-ingesting the same URL fully replaces the stored record.
type Document struct {
	URL         string
	Text        string   // full extracted body text
	Source      string   // normalized publisher name
	Authors     []string // extractor order, may be empty
	Title       string
	PublishedAt time.Time // UTC; zero when the publication date is unknown
	Vector      []float32 // embedding, fixed dimension store-wide
	BiasScore   *float64  // in [0,1], nil when classification is disabled
	Fingerprint Fingerprint
	InsertedAt  time.Time // when the record was first stored
	UpdatedAt   time.Time // when the record was last replaced
}

// Match pairs a retrieved document with its relevance score.
type Match struct {
	Document *Document
	Score    float32
}
