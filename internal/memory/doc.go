// Package memory keeps the bridge within its container memory budget.
//
// ConfigureFromEnv sets GOMEMLIMIT from MEMORY_LIMIT (bytes, typically
// passed through the Kubernetes Downward API) scaled by MEMORY_RATIO,
// unless GOMEMLIMIT is already set. Monitor samples heap usage against that
// limit; the indexer consults ShouldThrottle and skips preview rendering
// while usage is above the high water mark. Catalog updates are never
// skipped.
package memory
