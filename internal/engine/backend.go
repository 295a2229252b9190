package engine

import (
	"context"
	"encoding/base64"
)

// Backend abstracts the model runtime used by the Service.
type Backend interface {
	// Generate streams tokens for req through onToken and returns the final
	// result. Implementations must return when ctx is canceled.
	Generate(ctx context.Context, req Request, onToken func(string) error) (FinalResult, error)
	// Close releases any resources associated with the backend.
	Close() error
}

// Request is one generation call.
type Request struct {
	Prompt string
	// Image is attached for vision models; nil for text-only prompts.
	Image  *Image
	Params InferParams
}

// InferParams captures sampling parameters passed to the backend.
type InferParams struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
	TopK        int
	Stop        []string
	Seed        int
}

// FinalResult summarizes the generation after streaming.
type FinalResult struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Image is an encoded picture (JPEG, PNG, ...) with its MIME type.
type Image struct {
	Data []byte
	MIME string
}

// DataURL renders the image as a base64 data URL.
func (i *Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// LlamaBuilt reports whether the in-process llama backend was compiled in.
func LlamaBuilt() bool { return llamaBuilt }
