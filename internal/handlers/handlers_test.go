package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/database"
	"mediastore-bridge/internal/indexer"
	"mediastore-bridge/internal/mediatypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNamespace = "com.example.gallery"

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []bridge.MethodCall
	fn    func(bridge.MethodCall) (bridge.Outcome, error)
}

func (f *fakeDispatcher) Dispatch(_ context.Context, call bridge.MethodCall) (bridge.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(call)
	}
	return bridge.Success(), nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCatalog struct {
	files  map[string]*database.MediaFile
	recent []database.MediaFile
	stats  database.CatalogStats
	err    error

	lastType  mediatypes.FileType
	lastLimit int
}

func (c *fakeCatalog) GetFileByPath(_ context.Context, path string) (*database.MediaFile, error) {
	if c.err != nil {
		return nil, c.err
	}
	f, ok := c.files[path]
	if !ok {
		return nil, database.ErrNotFound
	}
	return f, nil
}

func (c *fakeCatalog) ListRecent(_ context.Context, t mediatypes.FileType, limit int) ([]database.MediaFile, error) {
	c.lastType, c.lastLimit = t, limit
	return c.recent, c.err
}

func (c *fakeCatalog) RefreshStats(context.Context) error { return c.err }

func (c *fakeCatalog) GetStats() database.CatalogStats { return c.stats }

type fakeIndexer struct {
	ready  bool
	status indexer.HealthStatus
}

func (f fakeIndexer) IsReady() bool                         { return f.ready }
func (f fakeIndexer) GetHealthStatus() indexer.HealthStatus { return f.status }

func newTestHandlers(t *testing.T, d Dispatcher, opts ...func(*Options)) *Handlers {
	t.Helper()
	ch, err := bridge.NewChannel(testNamespace)
	require.NoError(t, err)
	o := Options{Channel: ch, Dispatcher: d, Backend: "catalog", ScanFileSupported: true}
	for _, fn := range opts {
		fn(&o)
	}
	return New(o)
}

func invokePath(ns string) string {
	return "/api/channels/" + ns + "/media_store/invoke"
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) bridge.Envelope {
	t.Helper()
	var env bridge.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestInvokeOutcomes(t *testing.T) {
	d := &fakeDispatcher{fn: func(call bridge.MethodCall) (bridge.Outcome, error) {
		switch call.Method {
		case "scanFile":
			if call.Args["path"] == nil {
				return bridge.Failed(&bridge.Error{Code: bridge.CodeInvalidPath, Message: "No path provided"}), nil
			}
			return bridge.Success(), nil
		default:
			return bridge.NotImplemented(), nil
		}
	}}
	router := newTestHandlers(t, d).NewRouter()

	tests := []struct {
		name   string
		body   string
		status string
		code   string
	}{
		{"success", `{"method":"scanFile","args":{"path":"/sdcard/DCIM/a.jpg"}}`, bridge.StatusSuccess, ""},
		{"missing path", `{"method":"scanFile","args":{}}`, bridge.StatusError, bridge.CodeInvalidPath},
		{"unknown method", `{"method":"deleteFile","args":{"path":"/x"}}`, bridge.StatusNotImplemented, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, invokePath(testNamespace), tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.status, env.Status)
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
				assert.Equal(t, "No path provided", env.Error.Message)
			} else {
				assert.Nil(t, env.Error)
			}
		})
	}
}

func TestInvokeMalformedBodyNeverDispatched(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandlers(t, d).NewRouter()

	for _, body := range []string{"", "{", `{"method":42}`, "[]"} {
		rec := doRequest(router, http.MethodPost, invokePath(testNamespace), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
	assert.Zero(t, d.callCount())
}

func TestInvokeOversizedBody(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandlers(t, d).NewRouter()

	body := `{"method":"scanFile","args":{"path":"` + strings.Repeat("a", maxInvokeBody) + `"}}`
	rec := doRequest(router, http.MethodPost, invokePath(testNamespace), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, d.callCount())
}

func TestInvokeWrongChannel(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandlers(t, d).NewRouter()

	rec := doRequest(router, http.MethodPost, invokePath("org.other.app"), `{"method":"scanFile"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "org.other.app/media_store")
	assert.Zero(t, d.callCount())
}

func TestInvokeUnhandledFailure(t *testing.T) {
	d := &fakeDispatcher{fn: func(bridge.MethodCall) (bridge.Outcome, error) {
		return bridge.Outcome{}, errors.New("tracker unavailable")
	}}
	router := newTestHandlers(t, d).NewRouter()

	rec := doRequest(router, http.MethodPost, invokePath(testNamespace), `{"method":"scanFile","args":{"path":"/a"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tracker unavailable", body["error"])
}

func TestInvokeForwardsArgs(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestHandlers(t, d).NewRouter()

	rec := doRequest(router, http.MethodPost, invokePath(testNamespace), `{"method":"scanFile","args":{"path":"/music/a b.mp3"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, d.callCount())
	assert.Equal(t, "scanFile", d.calls[0].Method)
	assert.Equal(t, "/music/a b.mp3", d.calls[0].Args["path"])
}

func TestInvokeMethodNotAllowed(t *testing.T) {
	router := newTestHandlers(t, &fakeDispatcher{}).NewRouter()
	rec := doRequest(router, http.MethodGet, invokePath(testNamespace), "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/channels/"+testNamespace+"/media_store/ws", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCatalogRoutesAbsentWithoutCatalog(t *testing.T) {
	router := newTestHandlers(t, &fakeDispatcher{}).NewRouter()
	for _, path := range []string{"/api/catalog/stats", "/api/catalog/recent", "/api/thumbnail?path=/a"} {
		rec := doRequest(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestCatalogFile(t *testing.T) {
	cat := &fakeCatalog{files: map[string]*database.MediaFile{
		"/sdcard/DCIM/a.jpg": {ID: 7, Name: "a.jpg", Path: "/sdcard/DCIM/a.jpg", Type: mediatypes.FileTypeImage},
	}}
	router := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) { o.Catalog = cat }).NewRouter()

	rec := doRequest(router, http.MethodGet, "/api/catalog/file?path=/sdcard/DCIM/a.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var file database.MediaFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
	assert.Equal(t, int64(7), file.ID)
	assert.Equal(t, mediatypes.FileTypeImage, file.Type)

	rec = doRequest(router, http.MethodGet, "/api/catalog/file?path=/missing.jpg", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/catalog/file", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cat.err = errors.New("disk I/O error")
	rec = doRequest(router, http.MethodGet, "/api/catalog/file?path=/sdcard/DCIM/a.jpg", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListRecent(t *testing.T) {
	cat := &fakeCatalog{}
	router := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) { o.Catalog = cat }).NewRouter()

	rec := doRequest(router, http.MethodGet, "/api/catalog/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultRecentLimit, cat.lastLimit)
	assert.JSONEq(t, `{"items":[],"limit":50}`, rec.Body.String())

	rec = doRequest(router, http.MethodGet, "/api/catalog/recent?type=video&limit=100000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxRecentLimit, cat.lastLimit)
	assert.Equal(t, mediatypes.FileTypeVideo, cat.lastType)

	for _, q := range []string{"limit=0", "limit=-3", "limit=ten", "type=document"} {
		rec = doRequest(router, http.MethodGet, "/api/catalog/recent?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestCatalogStats(t *testing.T) {
	cat := &fakeCatalog{stats: database.CatalogStats{
		TotalFiles: 3,
		ByType:     map[mediatypes.FileType]int{mediatypes.FileTypeImage: 2, mediatypes.FileTypeAudio: 1},
		TotalBytes: 4096,
	}}
	router := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) { o.Catalog = cat }).NewRouter()

	rec := doRequest(router, http.MethodGet, "/api/catalog/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	var stats database.CatalogStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 1, stats.ByType[mediatypes.FileTypeAudio])
}

func TestThumbnail(t *testing.T) {
	preview := filepath.Join(t.TempDir(), "preview.jpg")
	require.NoError(t, os.WriteFile(preview, []byte("\xff\xd8\xff\xe0jpeg"), 0o644))

	cat := &fakeCatalog{files: map[string]*database.MediaFile{
		"/a.jpg":    {Path: "/a.jpg", HasThumbnail: true, ThumbnailPath: preview},
		"/song.mp3": {Path: "/song.mp3"},
	}}
	router := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) { o.Catalog = cat }).NewRouter()

	rec := doRequest(router, http.MethodGet, "/api/thumbnail?path=/a.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\xff\xd8\xff\xe0jpeg", rec.Body.String())

	rec = doRequest(router, http.MethodGet, "/api/thumbnail?path=/song.mp3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/thumbnail?path=/nope.jpg", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	idx := fakeIndexer{ready: true, status: indexer.HealthStatus{
		Ready: true, Workers: 4, QueueCapacity: 1024, FilesIndexed: 12, LastIndexed: time.Unix(1700000000, 0),
	}}
	h := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) { o.Indexer = idx })
	router := h.NewRouter()

	rec := doRequest(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, statusHealthy, resp.Status)
	assert.Equal(t, testNamespace+"/media_store", resp.Channel)
	assert.Equal(t, []string{"scanFile"}, resp.Methods)
	require.NotNil(t, resp.Indexer)
	assert.Equal(t, int64(12), resp.Indexer.FilesIndexed)
	assert.NotEmpty(t, resp.Indexer.LastIndexed)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/readyz", "").Code)

	rec = doRequest(router, http.MethodHead, "/livez", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	h.SetDraining()
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(router, http.MethodGet, "/readyz", "").Code)
	rec = doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), statusDraining)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/livez", "").Code)
}

func TestHealthNotReadyIndexer(t *testing.T) {
	h := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) { o.Indexer = fakeIndexer{} })
	rec := doRequest(h.NewRouter(), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())
}

func TestHealthWithoutScanAction(t *testing.T) {
	h := newTestHandlers(t, &fakeDispatcher{}, func(o *Options) {
		o.Backend = "none"
		o.ScanFileSupported = false
	})
	rec := doRequest(h.NewRouter(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "none", resp.Backend)
	assert.Empty(t, resp.Methods)
	assert.Nil(t, resp.Indexer)
}

func TestGetVersion(t *testing.T) {
	rec := doRequest(newTestHandlers(t, &fakeDispatcher{}).NewRouter(), http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Contains(t, info, "version")
}
