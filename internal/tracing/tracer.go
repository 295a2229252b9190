// Package tracing reports generation runs to a remote tracing service.
//
// A Tracer is passed to the components that need it; there is no package
// level singleton. Tracing is best effort: callers log failures and carry on.
package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStart describes a run when it begins.
type RunStart struct {
	Name      string
	RunType   string
	Inputs    map[string]any
	Metadata  map[string]any
	StartTime time.Time
}

// RunEnd describes the outcome of a run.
type RunEnd struct {
	Outputs map[string]any
	Error   string
	EndTime time.Time
}

// Tracer accepts run start and end events.
type Tracer interface {
	StartRun(ctx context.Context, run RunStart) (string, error)
	EndRun(ctx context.Context, id string, end RunEnd) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) StartRun(context.Context, RunStart) (string, error) { return uuid.NewString(), nil }
func (Noop) EndRun(context.Context, string, RunEnd) error         { return nil }

// Run is a completed or in-progress run recorded by Memory.
type Run struct {
	ID    string
	Start RunStart
	End   *RunEnd
}

// Memory stores runs in-memory for tests.
type Memory struct {
	mu   sync.Mutex
	runs []Run
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) StartRun(_ context.Context, run RunStart) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	m.runs = append(m.runs, Run{ID: id, Start: run})
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) EndRun(_ context.Context, id string, end RunEnd) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			e := end
			m.runs[i].End = &e
			return nil
		}
	}
	return ErrUnknownRun
}

// Runs returns a copy of the recorded runs.
func (m *Memory) Runs() []Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, len(m.runs))
	copy(out, m.runs)
	return out
}
