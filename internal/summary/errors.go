package summary

import "errors"

var (
	// ErrInputType is returned when the input is neither a path, raw JSON,
	// a decoded list/mapping nor a typed record slice.
	ErrInputType = errors.New("summary: unsupported input type")

	// ErrInvalidRecord is returned when a record lacks a required field or
	// carries a value of the wrong shape. Nothing is accumulated in that case.
	ErrInvalidRecord = errors.New("summary: invalid record")

	// ErrDegenerateStatistic is returned instead of NaN or Inf when a derived
	// statistic has a zero denominator.
	ErrDegenerateStatistic = errors.New("summary: degenerate statistic")
)
