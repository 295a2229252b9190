package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"beliefd/internal/config"
	"beliefd/internal/structured"
	"beliefd/internal/tracing"
)

// Options configure a Service.
type Options struct {
	ModelType   string
	ModelName   string
	Temperature float32
	MaxTokens   int
	// Structured, when set, asks the model for JSON matching the schema and
	// coerces the output into it.
	Structured *structured.Schema
	// MaxConcurrent bounds in-flight generations; <= 0 means unbounded.
	MaxConcurrent int
	MaxWait       time.Duration
	// Image is attached to every prompt in VLM mode.
	Image  *Image
	Tracer tracing.Tracer
	Logger *zerolog.Logger
}

// Service answers queries with the configured backend.
type Service struct {
	backend Backend
	opts    Options
	adm     *admission
	tracer  tracing.Tracer
	log     zerolog.Logger
	now     func() time.Time
}

// Result is the outcome of Generate.
type Result struct {
	// Response is the raw text, or the coerced object in structured mode.
	Response      any
	Raw           string
	ExecutionTime time.Duration
	FinishReason  string
	Usage         Usage
}

// ExecutionSeconds is the execution time rounded to four decimals.
func (r Result) ExecutionSeconds() float64 { return roundSeconds(r.ExecutionTime) }

// Health is the readiness report served at /health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	// Code is the HTTP status the report maps to.
	Code int `json:"-"`
}

// Health status values.
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
	HealthInvalid   = "invalid"
)

// NewService wires a backend with admission, tracing and prompt shaping.
// A nil backend yields a Service that reports itself unhealthy.
func NewService(backend Backend, opts Options) *Service {
	opts.ModelType = strings.ToUpper(strings.TrimSpace(opts.ModelType))
	tr := opts.Tracer
	if tr == nil {
		tr = tracing.Noop{}
	}
	lg := zerolog.Nop()
	if opts.Logger != nil {
		lg = *opts.Logger
	}
	return &Service{
		backend: backend,
		opts:    opts,
		adm:     newAdmission(opts.MaxConcurrent, opts.MaxWait),
		tracer:  tr,
		log:     lg.With().Str("component", "engine").Logger(),
		now:     time.Now,
	}
}

// Health reports whether the service can generate.
func (s *Service) Health() Health {
	switch s.opts.ModelType {
	case config.ModelTypeLLM, config.ModelTypeVLM:
	default:
		s.log.Error().Str("model_type", s.opts.ModelType).Msg("invalid model type configuration")
		return Health{Status: HealthInvalid, Message: "Invalid MODEL_TYPE configuration.", Code: 500}
	}
	if s.backend == nil || (s.opts.ModelType == config.ModelTypeVLM && s.opts.Image == nil) {
		s.log.Warn().Str("model_type", s.opts.ModelType).Msg("model is not initialized")
		return Health{
			Status:  HealthUnhealthy,
			Message: fmt.Sprintf("%s is not initialized. GPU may not be available.", s.opts.ModelType),
			Code:    503,
		}
	}
	return Health{Status: HealthHealthy, Message: "Model is initialized and ready.", Code: 200}
}

// Close releases the backend.
func (s *Service) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Generate answers query and returns the complete response.
func (s *Service) Generate(ctx context.Context, query string) (Result, error) {
	req, err := s.prepare(query)
	if err != nil {
		return Result{}, err
	}
	release, err := s.adm.acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()

	runID := s.startRun(ctx, s.chainName(false), query)
	start := s.now()
	final, err := s.backend.Generate(ctx, req, nil)
	elapsed := s.now().Sub(start)
	generationDuration.WithLabelValues("generate", outcomeLabel(err)).Observe(elapsed.Seconds())
	if err != nil {
		s.endRun(ctx, runID, nil, err)
		return Result{}, err
	}

	res := Result{
		Response:      final.Content,
		Raw:           final.Content,
		ExecutionTime: elapsed,
		FinishReason:  final.FinishReason,
		Usage:         final.Usage,
	}
	if s.opts.Structured != nil {
		obj, cerr := s.opts.Structured.Coerce(final.Content)
		if cerr != nil {
			s.endRun(ctx, runID, map[string]any{"raw": final.Content}, cerr)
			return Result{}, cerr
		}
		res.Response = obj
	}
	s.endRun(ctx, runID, map[string]any{"response": res.Response}, nil)
	s.log.Info().
		Str("model", s.opts.ModelName).
		Float64("execution_time_seconds", res.ExecutionSeconds()).
		Msg("generated response")
	return res, nil
}

// Stream answers query, writing NDJSON lines to w: one {"token"} line per
// fragment and a final {"done":true} line. flush, when non-nil, runs after
// every line. Errors before the first line are returned untouched so the
// caller can still choose a status code.
func (s *Service) Stream(ctx context.Context, query string, w io.Writer, flush func()) error {
	req, err := s.prepare(query)
	if err != nil {
		return err
	}
	release, err := s.adm.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	runID := s.startRun(ctx, s.chainName(true), query)
	start := s.now()
	onTok := func(tok string) error {
		if _, e := w.Write(tokenLineJSON(tok)); e != nil {
			return e
		}
		if flush != nil {
			flush()
		}
		return nil
	}
	final, err := s.backend.Generate(ctx, req, onTok)
	elapsed := s.now().Sub(start)
	generationDuration.WithLabelValues("stream", outcomeLabel(err)).Observe(elapsed.Seconds())
	if err != nil {
		s.endRun(ctx, runID, nil, err)
		return err
	}

	end := map[string]any{
		"done":                   true,
		"content":                final.Content,
		"finish_reason":          final.FinishReason,
		"usage":                  final.Usage,
		"execution_time_seconds": roundSeconds(elapsed),
	}
	var runErr error
	if s.opts.Structured != nil {
		if obj, cerr := s.opts.Structured.Coerce(final.Content); cerr != nil {
			end["error"] = cerr.Error()
			runErr = cerr
		} else {
			end["response"] = obj
		}
	}
	s.endRun(ctx, runID, map[string]any{"response": final.Content}, runErr)
	jb, _ := json.Marshal(end)
	if _, err := w.Write(append(jb, '\n')); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

// prepare validates the query and builds the backend request.
func (s *Service) prepare(query string) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, ErrEmptyQuery
	}
	prompt := query
	if s.opts.Structured != nil {
		prompt = s.opts.Structured.Prompt(query)
	}
	req := Request{
		Params: InferParams{Temperature: s.opts.Temperature, MaxTokens: s.opts.MaxTokens},
	}
	switch s.opts.ModelType {
	case config.ModelTypeLLM:
		if s.backend == nil {
			return Request{}, ErrDependencyUnavailable("LLM is not available.")
		}
		req.Prompt = prompt
	case config.ModelTypeVLM:
		if s.backend == nil || s.opts.Image == nil {
			return Request{}, ErrDependencyUnavailable("VLM is not available.")
		}
		req.Prompt = vlmPrompt(prompt)
		req.Image = s.opts.Image
	default:
		return Request{}, invalidModelTypeError{modelType: s.opts.ModelType}
	}
	return req, nil
}

func (s *Service) chainName(stream bool) string {
	name := "Unstructured Output"
	if s.opts.Structured != nil {
		name = "Structured Output"
	}
	if stream {
		return name + " Stream Chain"
	}
	return name + " Chain"
}

func (s *Service) startRun(ctx context.Context, name, query string) string {
	id, err := s.tracer.StartRun(ctx, tracing.RunStart{
		Name:    name,
		RunType: "chain",
		Inputs:  map[string]any{"query": query},
		Metadata: map[string]any{
			"model_type": s.opts.ModelType,
			"structured": s.opts.Structured != nil,
		},
		StartTime: s.now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("run", name).Msg("trace start failed")
		return ""
	}
	return id
}

func (s *Service) endRun(ctx context.Context, id string, outputs map[string]any, runErr error) {
	if id == "" {
		return
	}
	end := tracing.RunEnd{Outputs: outputs, EndTime: s.now()}
	if runErr != nil {
		end.Error = runErr.Error()
	}
	// The run is closed even when the request context is already done.
	if err := s.tracer.EndRun(context.WithoutCancel(ctx), id, end); err != nil {
		s.log.Warn().Err(err).Str("run_id", id).Msg("trace end failed")
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1e4) / 1e4
}

// tokenLineJSON formats a token NDJSON line.
func tokenLineJSON(tok string) []byte {
	type tokenMsg struct {
		Token string `json:"token"`
	}
	b, _ := json.Marshal(tokenMsg{Token: tok})
	return append(b, '\n')
}
