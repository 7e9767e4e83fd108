package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"text", "json", "tint"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Format: format, Output: &buf, Level: slog.LevelInfo, Component: ComponentReport})
			l.Info("built", FieldReport, "monthly")
			l.Debug("hidden")
			out := buf.String()
			if !strings.Contains(out, "built") || !strings.Contains(out, "monthly") {
				t.Fatalf("missing record: %q", out)
			}
			if strings.Contains(out, "hidden") {
				t.Fatalf("debug record leaked at info level: %q", out)
			}
		})
	}
}

func TestWithComponentReplaces(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf}).WithComponent(ComponentStorage)
	l.Info("x")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldComponent] != ComponentStorage {
		t.Fatalf("component = %v, want %s", rec[FieldComponent], ComponentStorage)
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Fatalf("component repeated: %s", buf.String())
	}
}

func TestMiddlewareAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf})
	h := Middleware(l, func(*http.Request) string { return "req-1" })(
		AccessLog(func(*http.Request) string { return "10.0.0.1" })(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if FromContext(r.Context()).Component() != ComponentHTTP {
					t.Errorf("request logger not in context")
				}
				w.WriteHeader(http.StatusTeapot)
			})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/expenses?q=x", nil))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["level"] != "WARN" || rec[FieldRequestID] != "req-1" || rec[FieldStatusCode] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected access log: %v", rec)
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()).Logger == nil {
		t.Fatal("expected default logger")
	}
}
