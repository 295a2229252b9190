package tracing

import "errors"

// ErrUnknownRun is returned when ending a run that was never started.
var ErrUnknownRun = errors.New("tracing: unknown run id")
