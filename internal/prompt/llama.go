package prompt

import (
	"strings"

	"promptbridge/internal/models"
)

const (
	seqStart  = "<s>"
	seqEnd    = "</s>"
	instOpen  = "[INST] "
	instClose = " [/INST]"
	sysOpen   = "<<SYS>>\n"
	sysClose  = "\n<</SYS>>"

	beginOfText = "<|begin_of_text|>"
	endOfTurn   = "<|eot_id|>"
)

func llama3Header(role string) string {
	return "<|start_header_id|>" + role + "<|end_header_id|>\n\n"
}

// formatLlama3 wraps every message in role-tagged header markers and leaves an
// open assistant header so the model continues the final turn.
func formatLlama3(messages []models.Message) string {
	var b strings.Builder
	b.WriteString(beginOfText)

	for _, msg := range messages {
		role := msg.Role
		switch role {
		case "system", "user", "assistant":
		default:
			role = "user"
		}
		b.WriteString(llama3Header(role))
		b.WriteString(msg.Content)
		b.WriteString(endOfTurn)
	}

	b.WriteString(llama3Header("assistant"))
	return b.String()
}

// formatLlama2 renders the llama2/codellama grammar. A leading system message
// becomes a single instruction block with an embedded system block and is
// consumed before the turn loop; a dangling sequence-start marker left by a
// trailing assistant turn is trimmed.
func formatLlama2(messages []models.Message) string {
	var b strings.Builder
	b.WriteString(seqStart)

	rest := messages
	if len(rest) > 0 && rest[0].Role == "system" {
		b.WriteString(instOpen)
		b.WriteString(sysOpen)
		b.WriteString(rest[0].Content)
		b.WriteString(sysClose)
		b.WriteString(instClose)
		rest = rest[1:]
	}

	for _, msg := range rest {
		switch msg.Role {
		case "user":
			b.WriteString(instOpen)
			b.WriteString(msg.Content)
			b.WriteString(instClose)
		case "assistant":
			b.WriteString(msg.Content)
			b.WriteString(seqEnd)
			b.WriteString(seqStart)
		}
	}

	return strings.TrimSuffix(b.String(), seqStart)
}

// formatMistral renders the mistral/nemo/codestral grammar. System messages
// produce no output; the grammar has no system block.
func formatMistral(messages []models.Message) string {
	var b strings.Builder
	b.WriteString(seqStart)

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			b.WriteString(instOpen)
			b.WriteString(msg.Content)
			b.WriteString(instClose)
		case "assistant":
			b.WriteString(msg.Content)
			b.WriteString(seqEnd)
		}
	}

	return b.String()
}
