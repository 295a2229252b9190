package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"beliefd/internal/engine"
	"beliefd/internal/httpapi"
	"beliefd/internal/tracing"
)

// fakeInference emulates an OpenAI-compatible completions server.
type fakeInference struct {
	mu      sync.Mutex
	prompts []string
	chats   int
	reply   []string
	// hold, when set, blocks each request until closed.
	hold chan struct{}
}

func (f *fakeInference) handler() http.Handler {
	mux := http.NewServeMux()
	serve := func(w http.ResponseWriter, r *http.Request, chat bool) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		if p, ok := body["prompt"].(string); ok {
			f.prompts = append(f.prompts, p)
		}
		if chat {
			f.chats++
		}
		f.mu.Unlock()
		if f.hold != nil {
			select {
			case <-f.hold:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frag := range f.reply {
			var chunk string
			if chat {
				b, _ := json.Marshal(frag)
				chunk = `{"choices":[{"delta":{"content":` + string(b) + `}}]}`
			} else {
				b, _ := json.Marshal(frag)
				chunk = `{"choices":[{"text":` + string(b) + `}]}`
			}
			io.WriteString(w, "data: "+chunk+"\n\n")
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
		io.WriteString(w, `data: {"choices":[{"text":"","finish_reason":"stop"}],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`+"\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) { serve(w, r, false) })
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) { serve(w, r, true) })
	return mux
}

func (f *fakeInference) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// newStack wires a fake inference server, the engine and the HTTP API.
func newStack(t *testing.T, fi *fakeInference, opts engine.Options) (*httptest.Server, *tracing.Memory) {
	t.Helper()
	inf := httptest.NewServer(fi.handler())
	t.Cleanup(inf.Close)
	backend := engine.NewOpenAIBackend(inf.URL, "", "test-model", 5*time.Second, time.Second, zerolog.Nop())
	tr := tracing.NewMemory()
	opts.Tracer = tr
	if opts.ModelType == "" {
		opts.ModelType = "LLM"
	}
	svc := engine.NewService(backend, opts)
	api := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(api.Close)
	return api, tr
}

func post(t *testing.T, url, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("../summary/testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(bytes.TrimSpace(b))
}

// newUnavailableMux serves an LLM service whose backend failed to start.
func newUnavailableMux() http.Handler {
	return httpapi.NewMux(engine.NewService(nil, engine.Options{ModelType: "LLM"}))
}
