package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrFetcherRequired is returned when a fetcher is not provided.
	ErrFetcherRequired = errors.New("fetcher required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrNormalizerRequired is returned when a source normalizer is not provided.
	ErrNormalizerRequired = errors.New("source normalizer required")
)

// Pipeline stages a single item can fail in.
const (
	StageFetch    = "fetch"
	StageEmbed    = "embed"
	StageValidate = "validate"
	StageStore    = "store"
)

// Failure records one item that could not be ingested. Failures are isolated
// per item; they never abort the chunk or sibling workers.
type Failure struct {
	URL   string
	Stage string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", f.URL, f.Stage, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}
