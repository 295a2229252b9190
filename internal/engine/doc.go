// Package engine provides the generation capability behind beliefd: a
// Backend that turns a prompt (and, for vision models, the fixed image) into
// text, and a Service that adds admission, prompt shaping, structured output
// coercion, timing and run tracing on top. It is structured by concern:
//
//   - backend.go: Backend interface, request/result types.
//   - backend_openai.go: OpenAI-compatible HTTP backend (vLLM, llama.cpp server).
//   - backend_llama.go: in-process go-llama.cpp backend (`-tags=llama`);
//     backend_llama_stub.go keeps default builds CGO-free.
//   - image.go: fixed image download for VLM mode.
//   - admission.go: bounded concurrent generations.
//   - service.go: Generate, Stream and Health.
//   - prompt.go: prompt templates.
//   - errors.go: error types and helpers (IsTooBusy, IsDependencyUnavailable).
//   - metrics.go: Prometheus collectors.
package engine
