package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// openAIBackend implements Backend by talking to an OpenAI-compatible
// inference server (vLLM, llama.cpp server) over HTTP. Text prompts go to
// /v1/completions; prompts with an image go to /v1/chat/completions.
type openAIBackend struct {
	baseURL    string
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewOpenAIBackend constructs a server-backed Backend for model.
func NewOpenAIBackend(baseURL, apiKey, model string, reqTimeout, connectTimeout time.Duration, log zerolog.Logger) Backend {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0: every request carries a context deadline instead.
	return newOpenAIBackendWithClient(baseURL, apiKey, model, reqTimeout, &http.Client{Transport: tr}, log)
}

func newOpenAIBackendWithClient(baseURL, apiKey, model string, reqTimeout time.Duration, cli *http.Client, log zerolog.Logger) *openAIBackend {
	return &openAIBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		reqTimeout: reqTimeout,
		httpClient: cli,
		log:        log.With().Str("backend", "openai").Logger(),
	}
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// completionRequest is the payload for /v1/completions.
type completionRequest struct {
	Model         string         `json:"model,omitempty"`
	Prompt        string         `json:"prompt"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   float32        `json:"temperature"`
	TopP          float32        `json:"top_p,omitempty"`
	TopK          int            `json:"top_k,omitempty"`
	Stop          []string       `json:"stop,omitempty"`
	Seed          int            `json:"seed,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// chatRequest is the payload for /v1/chat/completions.
type chatRequest struct {
	Model         string         `json:"model,omitempty"`
	Messages      []chatMessage  `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   float32        `json:"temperature"`
	TopP          float32        `json:"top_p,omitempty"`
	Stop          []string       `json:"stop,omitempty"`
	Seed          int            `json:"seed,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

// streamChunk covers both completion (text) and chat (delta) stream events.
type streamChunk struct {
	Choices []struct {
		Text  string `json:"text"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

func (b *openAIBackend) Generate(ctx context.Context, req Request, onToken func(string) error) (FinalResult, error) {
	if b.httpClient == nil {
		return FinalResult{}, ErrDependencyUnavailable("openai backend not initialized")
	}
	if b.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.reqTimeout)
		defer cancel()
	}

	var (
		path    string
		payload any
	)
	p := req.Params
	if req.Image != nil {
		path = "/v1/chat/completions"
		payload = chatRequest{
			Model: b.model,
			Messages: []chatMessage{{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: req.Prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: req.Image.DataURL()}},
				},
			}},
			MaxTokens:     p.MaxTokens,
			Temperature:   p.Temperature,
			TopP:          p.TopP,
			Stop:          p.Stop,
			Seed:          p.Seed,
			Stream:        true,
			StreamOptions: &streamOptions{IncludeUsage: true},
		}
	} else {
		path = "/v1/completions"
		payload = completionRequest{
			Model:         b.model,
			Prompt:        req.Prompt,
			MaxTokens:     p.MaxTokens,
			Temperature:   p.Temperature,
			TopP:          p.TopP,
			TopK:          p.TopK,
			Stop:          p.Stop,
			Seed:          p.Seed,
			Stream:        true,
			StreamOptions: &streamOptions{IncludeUsage: true},
		}
	}
	return b.stream(ctx, path, payload, onToken)
}

func (b *openAIBackend) stream(ctx context.Context, path string, payload any, onToken func(string) error) (FinalResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return FinalResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return FinalResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, ErrDependencyUnavailable(fmt.Sprintf("inference backend unreachable: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return FinalResult{}, fmt.Errorf("inference backend http error: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	// Servers emit Server-Sent Events: lines beginning with "data: ".
	r := bufio.NewReader(resp.Body)
	var (
		final   FinalResult
		content strings.Builder
	)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" && strings.HasPrefix(strings.ToLower(line), "data:") {
			data := strings.TrimSpace(line[len("data:"):])
			if data == "[DONE]" {
				break
			}
			var chunk streamChunk
			if jerr := json.Unmarshal([]byte(data), &chunk); jerr != nil {
				b.log.Debug().Str("line", line).Msg("unknown stream line")
			} else {
				if chunk.Usage != nil {
					final.Usage = *chunk.Usage
				}
				if len(chunk.Choices) > 0 {
					c := chunk.Choices[0]
					frag := c.Text
					if frag == "" {
						frag = c.Delta.Content
					}
					if frag != "" {
						content.WriteString(frag)
						if onToken != nil {
							if cbErr := onToken(frag); cbErr != nil {
								return final, cbErr
							}
						}
					}
					if c.FinishReason != nil && *c.FinishReason != "" {
						final.FinishReason = *c.FinishReason
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return final, ctx.Err()
			}
			b.log.Error().Err(err).Msg("stream read error")
			return final, err
		}
	}
	final.Content = content.String()
	return final, nil
}

func (b *openAIBackend) Close() error {
	if b.httpClient != nil {
		b.httpClient.CloseIdleConnections()
	}
	return nil
}
