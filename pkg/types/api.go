package types

import (
	"encoding/json"

	"beliefd/internal/summary"
)

// GenerateRequest is the payload for POST /generate and /generate/stream.
type GenerateRequest struct {
	// Required query text.
	// example: Summarize the tasking status of SAT-A.
	Text string `json:"text" example:"Summarize the tasking status of SAT-A."`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	// Generated text, or a JSON object when structured output is enabled.
	Response any `json:"response" swaggertype:"object"`
	// Wall time of the generation, rounded to four decimals.
	// example: 1.2345
	ExecutionTimeSeconds float64 `json:"execution_time_seconds" example:"1.2345"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// healthy, unhealthy or invalid.
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// example: Model is initialized and ready.
	Message string `json:"message" example:"Model is initialized and ready."`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SummariesRequest carries raw intent and collect request documents.
// Either list may be omitted.
type SummariesRequest struct {
	Intents         json.RawMessage `json:"intents,omitempty" swaggertype:"array,object"`
	CollectRequests json.RawMessage `json:"collect_requests,omitempty" swaggertype:"array,object"`
}

// SummariesResponse is returned by POST /summaries.
type SummariesResponse struct {
	Intents         summary.IntentReport  `json:"intents"`
	CollectRequests summary.CollectReport `json:"collect_requests"`
	// Text block combining both reports, as handed to the model.
	Context string `json:"context"`
}

// AnalyzeRequest asks the model to analyze summarized belief state.
type AnalyzeRequest struct {
	// Required user request.
	// example: Which targets are at risk of missing collection?
	Query           string          `json:"query" example:"Which targets are at risk of missing collection?"`
	Intents         json.RawMessage `json:"intents,omitempty" swaggertype:"array,object"`
	CollectRequests json.RawMessage `json:"collect_requests,omitempty" swaggertype:"array,object"`
}

// AnalyzeResponse is returned by POST /analyze.
type AnalyzeResponse struct {
	Response             any     `json:"response" swaggertype:"object"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds" example:"1.2345"`
	Context              string  `json:"context"`
}
