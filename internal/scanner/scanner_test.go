package scanner

import (
	"context"
	"errors"
	"testing"

	"mediastore-bridge/internal/metrics"

	"github.com/godbus/dbus/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLocator(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/storage/emulated/0/DCIM/img1.jpg", "file:///storage/emulated/0/DCIM/img1.jpg"},
		{"/media/My Photos/a b.png", "file:///media/My%20Photos/a%20b.png"},
		{"/media/100%/x.jpg", "file:///media/100%25/x.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileLocator(tt.path), tt.path)
	}
}

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"catalog", "Tracker", " none "} {
		_, err := ParseBackend(name)
		assert.NoError(t, err, name)
	}

	b, err := ParseBackend("TRACKER")
	require.NoError(t, err)
	assert.Equal(t, BackendTracker, b)

	_, err = ParseBackend("mediascanner")
	assert.Error(t, err)

	assert.Equal(t, []string{"catalog", "tracker", "none"}, BackendNames())
}

type recordingSubmitter struct {
	paths []string
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, path string) error {
	if r.err != nil {
		return r.err
	}
	r.paths = append(r.paths, path)
	return nil
}

func TestCatalogScan(t *testing.T) {
	sub := &recordingSubmitter{}
	c := NewCatalog(sub)

	require.NoError(t, c.Scan(context.Background(), "/media/a.jpg"))
	assert.Equal(t, []string{"/media/a.jpg"}, sub.paths, "path must be passed unmodified")

	full := errors.New("indexer queue is full")
	c = NewCatalog(&recordingSubmitter{err: full})
	err := c.Scan(context.Background(), "/media/b.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, full)
	assert.Contains(t, err.Error(), "file:///media/b.jpg")
}

type fakeBus struct {
	method string
	flags  dbus.Flags
	args   []interface{}
	err    error
}

func (f *fakeBus) GoWithContext(_ context.Context, method string, flags dbus.Flags, _ chan *dbus.Call, args ...interface{}) *dbus.Call {
	f.method = method
	f.flags = flags
	f.args = args
	return &dbus.Call{Method: method, Args: args, Err: f.err}
}

func TestTrackerScan(t *testing.T) {
	bus := &fakeBus{}
	tr := &Tracker{obj: bus}

	require.NoError(t, tr.Scan(context.Background(), "/home/user/Pictures/shot.png"))

	assert.Equal(t, "org.freedesktop.Tracker3.Miner.Files.Index.IndexLocation", bus.method)
	assert.Equal(t, dbus.FlagNoReplyExpected, bus.flags)
	require.Len(t, bus.args, 3)
	assert.Equal(t, "file:///home/user/Pictures/shot.png", bus.args[0])
	assert.Equal(t, []string{}, bus.args[1])
	assert.Equal(t, []string{}, bus.args[2])

	assert.NoError(t, tr.Close(), "closing without a connection is a no-op")
}

func TestTrackerScanSendFailure(t *testing.T) {
	sendErr := errors.New("connection closed")
	tr := &Tracker{obj: &fakeBus{err: sendErr}}

	err := tr.Scan(context.Background(), "/tmp/x.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, sendErr)
}

func TestInstrumentCountsSubmissions(t *testing.T) {
	counter := func(status string) float64 {
		return testutil.ToFloat64(metrics.ScanSubmissionsTotal.WithLabelValues("catalog", status))
	}
	submitted, failed := counter("submitted"), counter("failed")

	ok := Instrument(BackendCatalog, Func(func(context.Context, string) error { return nil }))
	require.NoError(t, ok.Scan(context.Background(), "/a.jpg"))

	boom := errors.New("boom")
	bad := Instrument(BackendCatalog, Func(func(context.Context, string) error { return boom }))
	assert.ErrorIs(t, bad.Scan(context.Background(), "/b.jpg"), boom)

	assert.Equal(t, submitted+1, counter("submitted"))
	assert.Equal(t, failed+1, counter("failed"))
}
