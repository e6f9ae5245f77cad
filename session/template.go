package session

import "strings"

// renderPrompt turns a selected message list into the prompt string
// passed to the tokenizer ahead of prefill, using a plain role-tagged
// template. Real deployments typically carry a model-specific chat
// template; this one is deliberately simple and stable across models.
func renderPrompt(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString("<|")
		sb.WriteString(string(m.Role))
		sb.WriteString("|>\n")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("<|assistant|>\n")
	return sb.String()
}
