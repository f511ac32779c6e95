package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the worker count.
const OverrideEnv = "SCAN_WORKERS"

// Count sizes a worker pool as multiplier workers per usable CPU, where
// usable CPUs is GOMAXPROCS (container limits included). A positive limit
// caps the result. A positive integer in SCAN_WORKERS replaces the
// computed size, still subject to limit.
func Count(multiplier float64, limit int) int {
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if v, err := strconv.Atoi(os.Getenv(OverrideEnv)); err == nil && v > 0 {
		n = v
	}
	n = max(n, 1)
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

// ForIO sizes a pool for I/O-bound work such as indexing: two per CPU.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
