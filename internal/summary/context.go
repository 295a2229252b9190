package summary

import (
	"encoding/json"
	"fmt"
)

// CombinedContext renders both reports as the text block handed to the
// generation backend. Nil reports render as empty objects.
func CombinedContext(intents IntentReport, collects CollectReport) (string, error) {
	if intents == nil {
		intents = IntentReport{}
	}
	if collects == nil {
		collects = CollectReport{}
	}
	ib, err := json.MarshalIndent(intents, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode intents summary: %w", err)
	}
	cb, err := json.MarshalIndent(collects, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode collect requests summary: %w", err)
	}
	return fmt.Sprintf("Intents Summary:\n%s\n\nCollect Requests Summary:\n%s\n", ib, cb), nil
}
