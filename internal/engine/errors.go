package engine

import (
	"errors"
	"net/http"
	"time"
)

// tooBusyError signals admission timeout for 429 mapping.
type tooBusyError struct{ waited string }

func (e tooBusyError) Error() string   { return "too busy: no generation slot after " + e.waited }
func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// ErrTooBusy constructs the error returned when no slot frees up within waited.
func ErrTooBusy(waited time.Duration) error { return tooBusyError{waited: waited.String()} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// dependencyUnavailableError signals a missing model or runtime so the HTTP
// layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string   { return e.msg }
func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}

// invalidModelTypeError signals a model type other than LLM or VLM.
type invalidModelTypeError struct{ modelType string }

func (e invalidModelTypeError) Error() string {
	return "invalid MODEL_TYPE configuration: " + e.modelType
}
func (e invalidModelTypeError) StatusCode() int { return http.StatusInternalServerError }

// IsInvalidModelType reports whether err is a model type misconfiguration.
func IsInvalidModelType(err error) bool {
	var ie invalidModelTypeError
	return errors.As(err, &ie)
}

// badRequestError marks caller mistakes such as an empty query.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string   { return e.msg }
func (e badRequestError) StatusCode() int { return http.StatusBadRequest }

// ErrEmptyQuery is returned when no text was provided for generation.
var ErrEmptyQuery error = badRequestError{msg: "No text provided for generation."}
