package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beliefd/internal/engine"
	"beliefd/internal/summary"
	"beliefd/pkg/types"
)

// Service defines the generation methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, query string) (engine.Result, error)
	Stream(ctx context.Context, query string, w io.Writer, flush func()) error
	Health() engine.Health
}

// NewMux builds the router. Summaries are computed in-process; generation
// goes through svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5, "application/json"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Post("/generate", h.generate)
	r.Post("/generate/stream", h.generateStream)
	r.Get("/health", h.health)
	r.Post("/summaries", h.summaries)
	r.Post("/analyze", h.analyze)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// decodeJSON enforces the content type and body limit, then decodes into v.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// generate godoc
// @Summary      Generate a response
// @Description  Runs the configured model over the query. The response is text, or an object when structured output is enabled.
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        request  body      types.GenerateRequest  true  "Query"
// @Success      200      {object}  types.GenerateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /generate [post]
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, engine.ErrEmptyQuery.Error())
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "generate")
	ctx, cancel := generationContext(r)
	defer cancel()
	res, err := h.svc.Generate(ctx, req.Text)
	if err != nil {
		if aborted(r) {
			return
		}
		status := writeError(w, err)
		logEnd(r, lvl, "generate", status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateResponse{
		Response:             res.Response,
		ExecutionTimeSeconds: res.ExecutionSeconds(),
	})
	logEnd(r, lvl, "generate", http.StatusOK, start, nil)
}

// generateStream godoc
// @Summary      Stream a response
// @Description  Streams NDJSON lines: {"token":...} per fragment, then a final {"done":true,...} line.
// @Tags         generation
// @Accept       json
// @Produce      application/x-ndjson
// @Param        request  body      types.GenerateRequest  true  "Query"
// @Success      200      {string}  string  "NDJSON stream"
// @Failure      400      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /generate/stream [post]
func (h *handlers) generateStream(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, engine.ErrEmptyQuery.Error())
		return
	}

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	// Headers go out with the first line so errors before it still get a status.
	sw := &ndjsonWriter{w: w}
	writer := io.Writer(sw)
	if lvl >= LevelDebug {
		writer = io.MultiWriter(sw, &loggingLineWriter{requestID: middleware.GetReqID(r.Context())})
	}
	logStart(r, lvl, "stream")
	ctx, cancel := generationContext(r)
	defer cancel()
	if err := h.svc.Stream(ctx, req.Text, writer, flush); err != nil {
		if aborted(r) {
			return
		}
		if sw.started {
			// Status already sent; the stream simply ends early.
			logEnd(r, lvl, "stream", http.StatusOK, start, err)
			return
		}
		status := writeError(w, err)
		logEnd(r, lvl, "stream", status, start, err)
		return
	}
	logEnd(r, lvl, "stream", http.StatusOK, start, nil)
}

// ndjsonWriter sets the NDJSON content type on first write.
type ndjsonWriter struct {
	w       http.ResponseWriter
	started bool
}

func (n *ndjsonWriter) Write(p []byte) (int, error) {
	if !n.started {
		n.started = true
		n.w.Header().Set("Content-Type", "application/x-ndjson")
		n.w.WriteHeader(http.StatusOK)
	}
	return n.w.Write(p)
}

// health godoc
// @Summary      Model readiness
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      500  {object}  types.HealthResponse
// @Failure      503  {object}  types.HealthResponse
// @Router       /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	hs := h.svc.Health()
	code := hs.Code
	if code == 0 {
		code = http.StatusOK
	}
	writeJSON(w, code, types.HealthResponse{Status: hs.Status, Message: hs.Message})
}

// summaries godoc
// @Summary      Summarize belief state
// @Description  Groups intents and collect requests by target and returns both reports plus the combined context text. Pass completion_durations=1 to include per-group completion durations.
// @Tags         summary
// @Accept       json
// @Produce      json
// @Param        request               body      types.SummariesRequest  true   "Raw records"
// @Param        completion_durations  query     bool                    false  "Include completion durations"
// @Success      200                   {object}  types.SummariesResponse
// @Failure      400                   {object}  types.ErrorResponse
// @Failure      422                   {object}  types.ErrorResponse
// @Router       /summaries [post]
func (h *handlers) summaries(w http.ResponseWriter, r *http.Request) {
	var req types.SummariesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	resp, err := summarize(req.Intents, req.CollectRequests, summaryOptions(r)...)
	if err != nil {
		status := writeError(w, err)
		logEnd(r, lvl, "summaries", status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	logEnd(r, lvl, "summaries", http.StatusOK, start, nil)
}

// analyze godoc
// @Summary      Analyze belief state
// @Description  Summarizes the records, then asks the model to address the query given the combined context.
// @Tags         summary
// @Accept       json
// @Produce      json
// @Param        request  body      types.AnalyzeRequest  true  "Query and raw records"
// @Success      200      {object}  types.AnalyzeResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /analyze [post]
func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "analyze")
	sum, err := summarize(req.Intents, req.CollectRequests, summaryOptions(r)...)
	if err != nil {
		status := writeError(w, err)
		logEnd(r, lvl, "analyze", status, start, err)
		return
	}
	ctx, cancel := generationContext(r)
	defer cancel()
	res, err := h.svc.Generate(ctx, engine.AnalysisPrompt(sum.Context, req.Query))
	if err != nil {
		if aborted(r) {
			return
		}
		status := writeError(w, err)
		logEnd(r, lvl, "analyze", status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.AnalyzeResponse{
		Response:             res.Response,
		ExecutionTimeSeconds: res.ExecutionSeconds(),
		Context:              sum.Context,
	})
	logEnd(r, lvl, "analyze", http.StatusOK, start, nil)
}

func summaryOptions(r *http.Request) []summary.Option {
	switch strings.ToLower(r.URL.Query().Get("completion_durations")) {
	case "1", "true", "yes":
		return []summary.Option{summary.WithCompletionDurations()}
	}
	return nil
}

// summarize runs both aggregators and counts the emitted groups.
func summarize(intents, collects json.RawMessage, opts ...summary.Option) (types.SummariesResponse, error) {
	sum, err := summary.Summarize(intents, collects, opts...)
	if err != nil {
		return types.SummariesResponse{}, err
	}
	summaryGroupsTotal.WithLabelValues("intents").Add(float64(len(sum.Intents)))
	summaryGroupsTotal.WithLabelValues("collect_requests").Add(float64(len(sum.CollectRequests)))
	return types.SummariesResponse{
		Intents:         sum.Intents,
		CollectRequests: sum.CollectRequests,
		Context:         sum.Context,
	}, nil
}
