package summary

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Summaries holds both reports and the combined context built from them.
type Summaries struct {
	Intents         IntentReport
	CollectRequests CollectReport
	Context         string
}

// Summarize runs both aggregators and builds the combined context. Either
// input may be absent (nil, an empty path, or empty/null JSON), which yields
// an empty report for that kind. opts apply to the intents report.
func Summarize(intents, collects any, opts ...Option) (Summaries, error) {
	out := Summaries{Intents: IntentReport{}, CollectRequests: CollectReport{}}
	if !absent(intents) {
		rep, err := SummarizeIntents(intents, opts...)
		if err != nil {
			return out, fmt.Errorf("intents: %w", err)
		}
		out.Intents = rep
	}
	if !absent(collects) {
		rep, err := SummarizeCollectRequests(collects)
		if err != nil {
			return out, fmt.Errorf("collect requests: %w", err)
		}
		out.CollectRequests = rep
	}
	text, err := CombinedContext(out.Intents, out.CollectRequests)
	if err != nil {
		return out, err
	}
	out.Context = text
	return out, nil
}

func absent(input any) bool {
	switch v := input.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.RawMessage:
		return emptyJSON(v)
	case []byte:
		return emptyJSON(v)
	}
	return false
}

func emptyJSON(b []byte) bool {
	s := strings.TrimSpace(string(b))
	return s == "" || s == "null"
}
