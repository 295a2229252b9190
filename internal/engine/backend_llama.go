//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaBackend owns an in-process model. go-llama.cpp holds a single
// token callback per model, so generations are serialized.
type llamaBackend struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

// NewLlamaBackend loads the GGUF model at modelPath.
func NewLlamaBackend(modelPath string, ctxSize, threads int) (Backend, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(modelPath, llama.SetContext(ctxSize))
	if err != nil {
		return nil, ErrDependencyUnavailable("load llama model: " + err.Error())
	}
	return &llamaBackend{model: m, threads: threads}, nil
}

func (b *llamaBackend) Generate(ctx context.Context, req Request, onToken func(string) error) (FinalResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return FinalResult{}, ErrDependencyUnavailable("llama model not initialized")
	}
	if req.Image != nil {
		return FinalResult{}, ErrDependencyUnavailable("llama backend does not accept images")
	}

	b.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if onToken != nil {
			if err := onToken(tok); err != nil {
				return false
			}
		}
		return true
	})
	text, err := b.model.Predict(req.Prompt, predictOptions(req.Params, b.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	// Token counts are not exposed by the binding.
	return FinalResult{Content: text, FinishReason: "stop"}, nil
}

func (b *llamaBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model != nil {
		b.model.Free()
		b.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts sampling params into go-llama.cpp options.
func predictOptions(p InferParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(p.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(p.Temperature, llama.DefaultOptions.Temperature)),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
