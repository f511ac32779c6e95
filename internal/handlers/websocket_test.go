package handlers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mediastore-bridge/internal/bridge"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSession(t *testing.T, server *httptest.Server, ns string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/channels/" + ns + "/media_store/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) bridge.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env bridge.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebSocketAnswersEachFrameOnce(t *testing.T) {
	d := &fakeDispatcher{fn: func(call bridge.MethodCall) (bridge.Outcome, error) {
		if call.Method != "scanFile" {
			return bridge.NotImplemented(), nil
		}
		if _, ok := call.Args["path"].(string); !ok {
			return bridge.Failed(&bridge.Error{Code: bridge.CodeInvalidPath, Message: "No path provided"}), nil
		}
		return bridge.Success(), nil
	}}
	server := httptest.NewServer(newTestHandlers(t, d).NewRouter())
	defer server.Close()
	conn := dialSession(t, server, testNamespace)

	const frames = 30
	want := make(map[string]string, frames)
	for i := 0; i < frames; i++ {
		id := fmt.Sprintf("req-%02d", i)
		frame := wsFrame{ID: id, Method: "scanFile", Args: map[string]any{"path": fmt.Sprintf("/sdcard/%02d.jpg", i)}}
		switch i % 3 {
		case 1:
			frame.Args = nil
			want[id] = bridge.StatusError
		case 2:
			frame.Method = "deleteFile"
			want[id] = bridge.StatusNotImplemented
		default:
			want[id] = bridge.StatusSuccess
		}
		require.NoError(t, conn.WriteJSON(frame))
	}

	got := make(map[string]string, frames)
	for i := 0; i < frames; i++ {
		env := readEnvelope(t, conn)
		_, dup := got[env.ID]
		require.False(t, dup, "frame %s answered twice", env.ID)
		got[env.ID] = env.Status
		if env.Status == bridge.StatusError {
			require.NotNil(t, env.Error)
			assert.Equal(t, bridge.CodeInvalidPath, env.Error.Code)
		}
	}
	assert.Equal(t, want, got)
	assert.Equal(t, frames, d.callCount())
}

func TestWebSocketInvalidFrame(t *testing.T) {
	d := &fakeDispatcher{}
	server := httptest.NewServer(newTestHandlers(t, d).NewRouter())
	defer server.Close()
	conn := dialSession(t, server, testNamespace)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	env := readEnvelope(t, conn)
	assert.Equal(t, bridge.StatusFailure, env.Status)
	assert.Contains(t, env.Message, "invalid frame")

	// The session survives a bad frame.
	require.NoError(t, conn.WriteJSON(wsFrame{ID: "ok", Method: "scanFile", Args: map[string]any{"path": "/a"}}))
	env = readEnvelope(t, conn)
	assert.Equal(t, "ok", env.ID)
	assert.Equal(t, bridge.StatusSuccess, env.Status)
	assert.Equal(t, 1, d.callCount())
}

func TestWebSocketDispatchFailure(t *testing.T) {
	d := &fakeDispatcher{fn: func(bridge.MethodCall) (bridge.Outcome, error) {
		return bridge.Outcome{}, fmt.Errorf("bus closed")
	}}
	server := httptest.NewServer(newTestHandlers(t, d).NewRouter())
	defer server.Close()
	conn := dialSession(t, server, testNamespace)

	require.NoError(t, conn.WriteJSON(wsFrame{ID: "x1", Method: "scanFile", Args: map[string]any{"path": "/a"}}))
	env := readEnvelope(t, conn)
	assert.Equal(t, "x1", env.ID)
	assert.Equal(t, bridge.StatusFailure, env.Status)
	assert.Equal(t, "bus closed", env.Message)
}

func TestWebSocketWrongChannel(t *testing.T) {
	server := httptest.NewServer(newTestHandlers(t, &fakeDispatcher{}).NewRouter())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/channels/org.other/media_store/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestCloseSessions(t *testing.T) {
	h := newTestHandlers(t, &fakeDispatcher{})
	server := httptest.NewServer(h.NewRouter())
	defer server.Close()
	conn := dialSession(t, server, testNamespace)

	require.NoError(t, conn.WriteJSON(wsFrame{ID: "warm", Method: "scanFile", Args: map[string]any{"path": "/a"}}))
	readEnvelope(t, conn)
	assert.Equal(t, 1, h.sessions.count())

	assert.Equal(t, 1, h.CloseSessions())
	assert.Equal(t, 0, h.sessions.count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// New sessions are refused once closed.
	late := dialSession(t, server, testNamespace)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
}

func TestCloseSessionsAnswersInflightFrames(t *testing.T) {
	release := make(chan struct{})
	d := &fakeDispatcher{fn: func(bridge.MethodCall) (bridge.Outcome, error) {
		<-release
		return bridge.Success(), nil
	}}
	h := newTestHandlers(t, d)
	server := httptest.NewServer(h.NewRouter())
	defer server.Close()
	conn := dialSession(t, server, testNamespace)

	require.NoError(t, conn.WriteJSON(wsFrame{ID: "inflight", Method: "scanFile", Args: map[string]any{"path": "/sdcard/a.jpg"}}))
	require.Eventually(t, func() bool { return d.callCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	closed := make(chan int, 1)
	go func() { closed <- h.CloseSessions() }()

	select {
	case <-closed:
		t.Fatal("CloseSessions returned while a frame was still being dispatched")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	env := readEnvelope(t, conn)
	assert.Equal(t, "inflight", env.ID)
	assert.Equal(t, bridge.StatusSuccess, env.Status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	select {
	case n := <-closed:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("CloseSessions did not return")
	}
	assert.Equal(t, 1, d.callCount())
}

func TestIsExpectedWSClose(t *testing.T) {
	assert.True(t, isExpectedWSClose(&websocket.CloseError{Code: websocket.CloseGoingAway}))
	assert.True(t, isExpectedWSClose(websocket.ErrCloseSent))
	assert.False(t, isExpectedWSClose(&websocket.CloseError{Code: websocket.CloseProtocolError}))
	assert.False(t, isExpectedWSClose(fmt.Errorf("boom")))
}
