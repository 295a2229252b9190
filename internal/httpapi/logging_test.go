package httpapi

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"DEBUG": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	// query param ?log=debug
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	// legacy query param ?log=1
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("legacy query override failed: %v", got)
	}
	// header X-Log-Level
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	// default applies without overrides
	SetRequestLogLevel("error")
	defer SetRequestLogLevel("off")
	r = httptest.NewRequest("GET", "/x", nil)
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("default level not applied: %v", got)
	}
}

func TestLoggingLineWriter_SplitsLines(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	defer log.SetOutput(orig)
	log.SetOutput(&buf)

	lw := &loggingLineWriter{}
	_, _ = lw.Write([]byte("a line\npartial"))
	_, _ = lw.Write([]byte("-cont\nlast\n"))

	out := buf.String()
	if !strings.Contains(out, "stream> a line") {
		t.Fatalf("missing logged line: %q", out)
	}
	if !strings.Contains(out, "stream> partial-cont") {
		t.Fatalf("missing joined line: %q", out)
	}
	if !strings.Contains(out, "stream> last") {
		t.Fatalf("missing last line: %q", out)
	}
}

func TestLogEnd_UsesStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer func() { zlog = nil }()

	r := httptest.NewRequest("POST", "/generate", nil)
	logEnd(r, LevelInfo, "generate", 503, time.Now(), errors.New("model down"))
	out := buf.String()
	if !strings.Contains(out, `"status":503`) || !strings.Contains(out, "model down") || !strings.Contains(out, "generate end") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	logEnd(r, LevelError, "generate", 200, time.Now(), nil)
	if buf.Len() != 0 {
		t.Fatalf("success should not log at error level: %q", buf.String())
	}
	logEnd(r, LevelOff, "generate", 500, time.Now(), errors.New("x"))
	if buf.Len() != 0 {
		t.Fatalf("off level should not log: %q", buf.String())
	}
}
