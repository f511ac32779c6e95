package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrListen is returned when the metrics listener cannot be bound.
var ErrListen = errors.New("telemetry: cannot bind metrics listener")

// Options configures the bootstrap. Only the first call's options are used.
type Options struct {
	Version   string
	Commit    string
	GoVersion string
	Channel   string
	Backend   string

	// Methods and Backends are pre-populated as metric label values.
	Methods  []string
	Backends []string

	// MetricsEnabled binds a /metrics listener on MetricsAddr.
	MetricsEnabled bool
	MetricsAddr    string
}

// Result describes the bootstrap that took effect.
type Result struct {
	StartedAt time.Time
	// MetricsAddr is the bound listener address, empty when disabled.
	MetricsAddr string
	// AlreadyInitialized is true for every call after the first.
	AlreadyInitialized bool
}

var (
	once       sync.Once
	initResult Result
	initErr    error
	server     *http.Server
	serverMu   sync.Mutex
)

// Bootstrap performs the process-wide telemetry initialization exactly
// once. Later calls, including concurrent ones, wait for the first to
// finish and return its result with AlreadyInitialized set. A failed
// bootstrap is not retried.
func Bootstrap(opts Options) (Result, error) {
	first := false
	once.Do(func() {
		first = true
		initResult, initErr = bootstrap(opts)
	})

	result := initResult
	result.AlreadyInitialized = !first
	return result, initErr
}

func bootstrap(opts Options) (Result, error) {
	result := Result{StartedAt: time.Now()}

	if err := prometheus.Register(collectors.NewBuildInfoCollector()); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return result, fmt.Errorf("telemetry: register build info: %w", err)
		}
	}

	metrics.AppInfo.WithLabelValues(opts.Version, opts.Commit, opts.GoVersion, opts.Channel, opts.Backend).Set(1)
	metrics.InitializeMetrics(opts.Methods, opts.Backends)

	if !opts.MetricsEnabled {
		logging.Info("Telemetry initialized (metrics listener disabled)")
		return result, nil
	}

	addr, err := serveMetrics(opts.MetricsAddr)
	if err != nil {
		return result, err
	}
	result.MetricsAddr = addr
	logging.Info("Telemetry initialized, metrics on http://%s/metrics", addr)
	return result, nil
}

func serveMetrics(addr string) (string, error) {
	if addr == "" {
		addr = ":9090"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w on %s: %v", ErrListen, addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverMu.Lock()
	server = srv
	serverMu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown stops the metrics listener if Bootstrap started one.
func Shutdown(ctx context.Context) error {
	serverMu.Lock()
	srv := server
	server = nil
	serverMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
