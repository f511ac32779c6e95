/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the
container's CPU limit (Go 1.19+). The helpers here derive pool sizes from
GOMAXPROCS so the indexer does not oversubscribe a constrained pod:

	numWorkers := workers.ForIO(8) // 2 per CPU, at most 8

Indexing a scanned file is mostly stat and SQLite I/O, so the indexer uses
ForIO. Operators can pin the count with SCAN_WORKERS; the limit passed by
the caller still applies.
*/
package workers
