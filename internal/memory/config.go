package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"mediastore-bridge/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The remainder covers libvips, SQLite and goroutine stacks.
const DefaultMemoryRatio = 0.85

// Limit sources reported in ConfigResult.Source.
const (
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// ConfigResult describes what ConfigureFromEnv did.
type ConfigResult struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// limitFromEnv computes the heap limit from MEMORY_LIMIT and MEMORY_RATIO.
// A ratio outside (0, 1] falls back to DefaultMemoryRatio.
func limitFromEnv(getenv func(string) string) (ConfigResult, error) {
	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		return ConfigResult{Source: SourceNone}, nil
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		return ConfigResult{Source: SourceNone}, fmt.Errorf("invalid MEMORY_LIMIT %q", raw)
	}

	ratio := DefaultMemoryRatio
	if rawRatio := getenv("MEMORY_RATIO"); rawRatio != "" {
		parsed, err := strconv.ParseFloat(rawRatio, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", rawRatio, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", rawRatio, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	return ConfigResult{
		Configured:     true,
		Source:         SourceMemoryLimit,
		ContainerLimit: containerLimit,
		GoMemLimit:     int64(float64(containerLimit) * ratio),
		Ratio:          ratio,
	}, nil
}

// ConfigureFromEnv sets the Go soft memory limit from the container limit
// passed in MEMORY_LIMIT (bytes). An explicit GOMEMLIMIT always wins.
// Call it early in main.
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: SourceGoMemLimit}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	result, err := limitFromEnv(os.Getenv)
	if err != nil {
		logging.Warn("%v, GOMEMLIMIT not configured", err)
		return result
	}
	if !result.Configured {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return result
	}

	debug.SetMemoryLimit(result.GoMemLimit)
	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(result.GoMemLimit), result.Ratio*100, FormatBytes(result.ContainerLimit))
	return result
}

// FormatBytes renders b with binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
