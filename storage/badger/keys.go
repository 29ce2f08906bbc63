package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	documentPrefix     = "newsdoc:"
	documentDatePrefix = "newsdate:"
	dimensionKey       = "newsmeta:dim"
)

// makeDocumentKey generates a key for a document by URL.
func makeDocumentKey(url string) []byte {
	return append([]byte(documentPrefix), url...)
}

// documentURL recovers the URL from a document key.
func documentURL(key []byte) string {
	return string(key[len(documentPrefix):])
}

// orderedMicros encodes an instant so that byte order matches time order.
// The sign bit is flipped because UnixMicro is negative for pre-epoch
// instants (including the zero time).
func orderedMicros(ts time.Time) uint64 {
	return uint64(ts.UnixMicro()) ^ (1 << 63)
}

// makeDateKey generates a composite key for the publication-date index.
// Format: prefix + big-endian ordered micros + url
func makeDateKey(ts time.Time, url string) []byte {
	prefix := []byte(documentDatePrefix)
	buf := make([]byte, len(prefix)+8+len(url))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], orderedMicros(ts))
	copy(buf[offset+8:], url)
	return buf
}

// makePartialDateKey generates a partial key for date range queries.
// Format: prefix + big-endian ordered micros
func makePartialDateKey(ts time.Time) []byte {
	prefix := []byte(documentDatePrefix)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], orderedMicros(ts))
	return buf
}
