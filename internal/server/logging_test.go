package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func captureLogs(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := DefaultLogger
	DefaultLogger = NewLogger(&buf, level, LogFormatJSON)
	t.Cleanup(func() { DefaultLogger = prev })
	return &buf
}

func TestRequestID_Preserved(t *testing.T) {
	dir := defaultFiles(t)
	s := newTestServer(t, dir, DefaultEntries(), nil)
	logs := captureLogs(t, LogLevelInfo)

	req := httptest.NewRequest(http.MethodGet, "/csv/order.csv", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get(HeaderRequestID); got != "req-123" {
		t.Errorf("X-Request-Id = %q, want req-123", got)
	}

	out := logs.String()
	for _, want := range []string{`"request_id":"req-123"`, `"message":"request_completed"`, `"status":200`, `"path":"/csv/order.csv"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestRequestID_Generated(t *testing.T) {
	s := newTestServer(t, t.TempDir(), DefaultEntries(), nil)

	rr := do(t, s.Handler(), http.MethodGet, "/live")

	rid := rr.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(rid); err != nil {
		t.Errorf("generated request id %q is not a UUID: %v", rid, err)
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestLoggingMiddleware_ServerErrorsLoggedAsWarn(t *testing.T) {
	s := newTestServer(t, t.TempDir(), DefaultEntries(), nil)
	logs := captureLogs(t, LogLevelWarn)

	rr := do(t, s.Handler(), http.MethodGet, "/csv/order.csv")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	out := logs.String()
	if !strings.Contains(out, `"message":"csv_read_failed"`) {
		t.Errorf("missing csv_read_failed entry:\n%s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"status":500`) {
		t.Errorf("missing warn access log entry:\n%s", out)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		expected   string
	}{
		{
			name:       "RemoteAddr only",
			remoteAddr: "192.168.1.1:12345",
			expected:   "192.168.1.1",
		},
		{
			name:       "X-Forwarded-For single IP",
			remoteAddr: "127.0.0.1:12345",
			xff:        "203.0.113.1",
			expected:   "203.0.113.1",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			remoteAddr: "127.0.0.1:12345",
			xff:        "203.0.113.1, 198.51.100.1, 192.0.2.1",
			expected:   "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			remoteAddr: "127.0.0.1:12345",
			xri:        "203.0.113.5",
			expected:   "203.0.113.5",
		},
		{
			name:       "X-Forwarded-For takes precedence",
			remoteAddr: "127.0.0.1:12345",
			xff:        "203.0.113.1",
			xri:        "203.0.113.5",
			expected:   "203.0.113.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			got := getClientIP(req)
			if got != tt.expected {
				t.Errorf("got %q, expected %q", got, tt.expected)
			}
		})
	}
}
