//go:build !llama

package engine

// Compiled when the 'llama' build tag is not set, keeping default builds
// CGO-free. The real backend lives in backend_llama.go.

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = false

// NewLlamaBackend fails fast: the llama runtime is not available in this build.
func NewLlamaBackend(modelPath string, ctxSize, threads int) (Backend, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
