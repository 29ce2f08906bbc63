// Package search ranks stored documents against a query embedding.
//
// Retrieval is a brute-force cosine scan over the repository, filtered by
// source allow/deny lists and an inclusive publication-date range. Scores for
// whitelisted sources are boosted additively before the threshold test, so an
// allow-listed source can clear the threshold on a sub-threshold raw
// similarity. Equal scores keep scan order.
package search
