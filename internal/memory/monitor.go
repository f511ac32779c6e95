package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/metrics"
)

// Monitor samples heap usage against the soft memory limit and tells
// optional work, such as preview rendering, to back off while usage is high.
type Monitor struct {
	limit     int64
	highWater float64
	interval  time.Duration

	throttled atomic.Bool
	stopOnce  sync.Once
	stopChan  chan struct{}
}

// NewMonitor creates a monitor. A zero limit means the current GOMEMLIMIT;
// with no limit at all the monitor never throttles.
func NewMonitor(limit int64, highWater float64, interval time.Duration) *Monitor {
	if limit <= 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
		}
	}
	if highWater <= 0 || highWater > 1 {
		highWater = 0.8
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		limit:     limit,
		highWater: highWater,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, throttling disabled")
		return
	}
	logging.Info("Memory monitor started (limit %s, throttle at %.0f%%)", FormatBytes(m.limit), m.highWater*100)
	go m.loop()
}

// Stop ends sampling. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.observe(stats.Alloc)
		case <-m.stopChan:
			return
		}
	}
}

// observe updates the throttle state for a heap size of alloc bytes.
func (m *Monitor) observe(alloc uint64) {
	if m.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	throttle := usage >= m.highWater
	if m.throttled.Swap(throttle) == throttle {
		return
	}
	if throttle {
		logging.Warn("Memory high (%.1f%% of limit), pausing preview rendering", usage*100)
		metrics.MemoryThrottled.Set(1)
	} else {
		logging.Info("Memory recovered (%.1f%% of limit), resuming preview rendering", usage*100)
		metrics.MemoryThrottled.Set(0)
	}
}

// ShouldThrottle reports whether optional work should be skipped.
func (m *Monitor) ShouldThrottle() bool {
	return m != nil && m.throttled.Load()
}
