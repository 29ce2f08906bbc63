// Package ingestion fans batches of article requests out to a fixed-size
// worker pool and runs the per-article pipeline: fetch, embed, optionally
// classify bias, validate, store.
//
// The batch is partitioned into one contiguous chunk per worker and each
// chunk is processed sequentially, so a batch of N requests with W workers
// costs at most ceil(N/W) sequential pipeline runs per worker. Failures are
// isolated per item and collected into the returned Report; only an unknown
// feed name, caught during up-front validation, fails the whole call.
package ingestion
