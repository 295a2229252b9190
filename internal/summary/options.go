package summary

// Option adjusts formatting.
type Option func(*options)

type options struct {
	completionDurations bool
}

// WithCompletionDurations adds completion_durations_seconds to intent
// summaries. Without it the output shape omits the field.
func WithCompletionDurations() Option {
	return func(o *options) { o.completionDurations = true }
}

func applyOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
