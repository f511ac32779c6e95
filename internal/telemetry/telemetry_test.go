package telemetry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset allows each test to observe a first bootstrap.
func reset(t *testing.T) {
	t.Helper()
	require.NoError(t, Shutdown(context.Background()))
	once = sync.Once{}
	initResult = Result{}
	initErr = nil
}

func testOptions() Options {
	return Options{
		Version:        "test",
		Commit:         "abc123",
		GoVersion:      "go1.25",
		Channel:        "com.example.test/media_store",
		Backend:        "catalog",
		Methods:        []string{"scanFile"},
		Backends:       []string{"catalog", "tracker", "none"},
		MetricsEnabled: true,
		MetricsAddr:    "127.0.0.1:0",
	}
}

func TestBootstrapServesMetrics(t *testing.T) {
	reset(t)
	t.Cleanup(func() { reset(t) })

	result, err := Bootstrap(testOptions())
	require.NoError(t, err)
	assert.False(t, result.AlreadyInitialized)
	require.NotEmpty(t, result.MetricsAddr)

	resp, err := http.Get("http://" + result.MetricsAddr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "mediastore_bridge_app_info")
	assert.Contains(t, string(body), `method="scanFile"`)
}

func TestBootstrapRunsOnce(t *testing.T) {
	reset(t)
	t.Cleanup(func() { reset(t) })

	first, err := Bootstrap(testOptions())
	require.NoError(t, err)

	const callers = 8
	results := make([]Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := Bootstrap(testOptions())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.AlreadyInitialized)
		assert.Equal(t, first.MetricsAddr, r.MetricsAddr, "no second listener")
		assert.Equal(t, first.StartedAt, r.StartedAt)
	}
}

func TestBootstrapListenFailure(t *testing.T) {
	reset(t)
	t.Cleanup(func() { reset(t) })

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	opts := testOptions()
	opts.MetricsAddr = busy.Addr().String()

	_, err = Bootstrap(opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrListen))

	// The failure sticks: later calls report it without retrying.
	again, err := Bootstrap(testOptions())
	assert.ErrorIs(t, err, ErrListen)
	assert.True(t, again.AlreadyInitialized)
}

func TestBootstrapMetricsDisabled(t *testing.T) {
	reset(t)
	t.Cleanup(func() { reset(t) })

	opts := testOptions()
	opts.MetricsEnabled = false

	result, err := Bootstrap(opts)
	require.NoError(t, err)
	assert.Empty(t, result.MetricsAddr)
	assert.NoError(t, Shutdown(context.Background()))
}
