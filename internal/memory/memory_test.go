package memory

import (
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLimitFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantLimit  int64
		wantRatio  float64
		configured bool
		wantErr    bool
	}{
		{"unset", map[string]string{}, 0, 0, false, false},
		{"default ratio", map[string]string{"MEMORY_LIMIT": "1000"}, 850, 0.85, true, false},
		{"custom ratio", map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "0.5"}, 500, 0.5, true, false},
		{"ratio out of range", map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "1.5"}, 850, 0.85, true, false},
		{"ratio garbage", map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "lots"}, 850, 0.85, true, false},
		{"limit garbage", map[string]string{"MEMORY_LIMIT": "1Gi"}, 0, 0, false, true},
		{"limit negative", map[string]string{"MEMORY_LIMIT": "-5"}, 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := limitFromEnv(envMap(tt.env))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Configured != tt.configured {
				t.Errorf("Configured = %v, want %v", got.Configured, tt.configured)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:                    "512 B",
		1024:                   "1.0 KiB",
		1536:                   "1.5 KiB",
		1024 * 1024:            "1.0 MiB",
		3 * 1024 * 1024 * 1024: "3.0 GiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMonitorThrottle(t *testing.T) {
	m := NewMonitor(1000, 0.8, time.Second)

	m.observe(500)
	if m.ShouldThrottle() {
		t.Error("50% usage should not throttle")
	}

	m.observe(900)
	if !m.ShouldThrottle() {
		t.Error("90% usage should throttle")
	}

	m.observe(100)
	if m.ShouldThrottle() {
		t.Error("throttle should clear after usage drops")
	}
}

func TestMonitorDefaultsAndNil(t *testing.T) {
	m := NewMonitor(1000, 0, 0)
	if m.highWater != 0.8 || m.interval != 5*time.Second {
		t.Errorf("defaults = (%v, %v)", m.highWater, m.interval)
	}

	m.Start()
	m.Stop()
	m.Stop()

	var nilMonitor *Monitor
	if nilMonitor.ShouldThrottle() {
		t.Error("nil monitor should never throttle")
	}
}
