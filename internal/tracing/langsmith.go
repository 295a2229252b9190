package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"beliefd/internal/config"
)

const defaultTraceTimeout = 10 * time.Second

// LangSmith posts runs to a LangSmith-compatible REST endpoint:
// POST {endpoint}/runs on start and PATCH {endpoint}/runs/{id} on end.
type LangSmith struct {
	endpoint   string
	apiKey     string
	project    string
	httpClient *http.Client
}

// NewLangSmith constructs a LangSmith tracer. A nil client gets a default
// client with a short timeout.
func NewLangSmith(endpoint, apiKey, project string, client *http.Client) *LangSmith {
	if client == nil {
		client = &http.Client{Timeout: defaultTraceTimeout}
	}
	return &LangSmith{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		project:    project,
		httpClient: client,
	}
}

// New returns the tracer described by cfg: LangSmith when enabled with an
// API key, Noop otherwise.
func New(cfg config.TracingConfig) Tracer {
	if !cfg.Enabled || strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.Endpoint) == "" {
		return Noop{}
	}
	return NewLangSmith(cfg.Endpoint, cfg.APIKey, cfg.Project, nil)
}

type createRunRequest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	RunType     string         `json:"run_type"`
	Inputs      map[string]any `json:"inputs"`
	StartTime   string         `json:"start_time"`
	SessionName string         `json:"session_name,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

type updateRunRequest struct {
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
	EndTime string         `json:"end_time"`
}

func (l *LangSmith) StartRun(ctx context.Context, run RunStart) (string, error) {
	id := uuid.NewString()
	start := run.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	runType := run.RunType
	if runType == "" {
		runType = "chain"
	}
	body := createRunRequest{
		ID:          id,
		Name:        run.Name,
		RunType:     runType,
		Inputs:      run.Inputs,
		StartTime:   start.UTC().Format(time.RFC3339Nano),
		SessionName: l.project,
	}
	if len(run.Metadata) > 0 {
		body.Extra = map[string]any{"metadata": run.Metadata}
	}
	if err := l.send(ctx, http.MethodPost, "/runs", body); err != nil {
		return "", err
	}
	return id, nil
}

func (l *LangSmith) EndRun(ctx context.Context, id string, end RunEnd) error {
	if id == "" {
		return ErrUnknownRun
	}
	t := end.EndTime
	if t.IsZero() {
		t = time.Now()
	}
	return l.send(ctx, http.MethodPatch, "/runs/"+id, updateRunRequest{
		Outputs: end.Outputs,
		Error:   end.Error,
		EndTime: t.UTC().Format(time.RFC3339Nano),
	})
}

func (l *LangSmith) send(ctx context.Context, method, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode trace payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, l.endpoint+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.apiKey)
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trace %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("trace %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
