package middleware

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds configuration for the access log middleware
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged.
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig logs every request, probes included.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

var probePaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

func (c LoggingConfig) skip(path string) bool {
	if !c.LogHealthChecks && probePaths[path] {
		return true
	}
	for _, prefix := range c.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Logger writes one W3C Extended Log Format line per request:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(User-Agent)
//
// Channel WebSocket sessions are logged once they end, with status 101.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			//nolint:gosec // request fields are sanitized in formatW3C
			log.Println(formatW3C(time.Now().UTC(), r, rw, time.Since(start)))
		})
	}
}

func formatW3C(now time.Time, r *http.Request, rw *responseWriter, took time.Duration) string {
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitizeLogField(getClientIP(r))),
		orDash(sanitizeLogField(r.Method)),
		orDash(sanitizeLogField(r.URL.Path)),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
	}
	return strings.Join(fields, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField keeps a client-supplied value on one log line. CR and LF
// become spaces; every other control character except tab is dropped.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// escapeW3CField quotes values containing whitespace or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
