package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsMaxFrameSize = maxInvokeBody
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Callers are local platform clients, not browsers; access control is
	// the bearer token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is a client invocation sent over a session.
type wsFrame struct {
	ID     string         `json:"id"`
	Method string         `json:"method"`
	Args   map[string]any `json:"args,omitempty"`
}

// wsConn serializes writes on a websocket connection.
type wsConn struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
	stopping  atomic.Bool
}

// stopReading ends the session's read loop without touching the write side,
// so frames already dispatched can still be answered.
func (c *wsConn) stopReading() {
	c.stopping.Store(true)
	_ = c.conn.SetReadDeadline(time.Now())
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Close sends a normal close frame once and closes the connection.
func (c *wsConn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bridge shutting down"),
			time.Now().Add(time.Second),
		)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

// sessionSet tracks open sessions so shutdown can close them.
type sessionSet struct {
	mu       sync.Mutex
	sessions map[*wsConn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func newSessionSet() *sessionSet {
	return &sessionSet{sessions: make(map[*wsConn]struct{})}
}

func (s *sessionSet) add(c *wsConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[c] = struct{}{}
	s.wg.Add(1)
	metrics.BridgeWebSocketSessions.Set(float64(len(s.sessions)))
	return true
}

func (s *sessionSet) remove(c *wsConn) {
	s.mu.Lock()
	delete(s.sessions, c)
	metrics.BridgeWebSocketSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	s.wg.Done()
}

func (s *sessionSet) closeAll() int {
	s.mu.Lock()
	s.closed = true
	open := make([]*wsConn, 0, len(s.sessions))
	for c := range s.sessions {
		open = append(open, c)
	}
	s.mu.Unlock()

	// Each handler answers its in-flight frames and then sends the close
	// frame itself.
	for _, c := range open {
		c.stopReading()
	}
	s.wg.Wait()
	return len(open)
}

// WebSocket handles GET /api/channels/{namespace}/media_store/ws. Each
// frame is dispatched on its own goroutine and answered exactly once with
// an envelope carrying the frame's id.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	requested, ok := h.channelFromRequest(r)
	if !ok {
		writeJSONError(w, "unknown channel "+requested.String(), http.StatusNotFound)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed: %v", err)
		return
	}
	raw.SetReadLimit(wsMaxFrameSize)
	conn := &wsConn{conn: raw}

	if !h.sessions.add(conn) {
		conn.Close()
		return
	}
	defer h.sessions.remove(conn)
	defer conn.Close()

	h.log.Debug("websocket session opened from %s", r.RemoteAddr)

	// Frames outlive the upgrade request, so they are not bound to its
	// context; in-flight frames are answered before the session ends.
	ctx := context.WithoutCancel(r.Context())
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			if !conn.stopping.Load() && !isExpectedWSClose(err) {
				h.log.Warn("websocket read error: %v", err)
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.reply(conn, bridge.FailureEnvelope(errors.New("invalid frame: "+err.Error())))
			continue
		}

		inflight.Add(1)
		go func(frame wsFrame) {
			defer inflight.Done()
			call := bridge.MethodCall{Method: frame.Method, Args: frame.Args}
			outcome, err := h.dispatcher.Dispatch(ctx, call)
			var env bridge.Envelope
			if err != nil {
				env = bridge.FailureEnvelope(err)
			} else {
				env = bridge.EnvelopeFor(outcome)
			}
			env.ID = frame.ID
			h.reply(conn, env)
		}(frame)
	}
}

func (h *Handlers) reply(conn *wsConn, env bridge.Envelope) {
	if err := conn.WriteJSON(env); err != nil && !isExpectedWSClose(err) {
		h.log.Warn("websocket write failed for frame %q: %v", env.ID, err)
	}
}

func isExpectedWSClose(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
			return true
		}
	}
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

func (s *sessionSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
