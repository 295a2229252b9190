package engine

import "fmt"

const vlmTemplate = "USER: <image>\n%s\nASSISTANT:"

// vlmPrompt wraps text in the llava conversation template.
func vlmPrompt(text string) string { return fmt.Sprintf(vlmTemplate, text) }

// AnalysisPrompt asks the model to analyze a belief-state context against
// the user's request.
func AnalysisPrompt(context, query string) string {
	return fmt.Sprintf("Given this info: %s, analyze the info and address the user's request: %s.\nKeep your response to 100 words. Please proceed:", context, query)
}
