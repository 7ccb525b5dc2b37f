package prompt

import (
	"strings"

	"promptbridge/internal/models"
)

// formatClaude renders plain labeled turns: system content appears untagged,
// user/assistant turns carry "User:"/"Assistant:" prefixes, and a bare
// trailing "Assistant:" cues the completion.
func formatClaude(messages []models.Message) string {
	var b strings.Builder

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case "user":
			b.WriteString("User: ")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case "assistant":
			b.WriteString("Assistant: ")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Assistant:")
	return b.String()
}

// formatGrok is the Claude layout with explicit labeled blocks, each label on
// its own line.
func formatGrok(messages []models.Message) string {
	var b strings.Builder

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			b.WriteString("System Instruction:\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case "user":
			b.WriteString("User:\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case "assistant":
			b.WriteString("Assistant:\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Assistant:\n")
	return b.String()
}

// formatSimple emits one "role: content" line per message joined by blank
// lines. When the grammar does not accept a system role, system messages are
// folded into a parenthesised instruction with no role prefix.
func formatSimple(messages []models.Message, systemRole bool) string {
	lines := make([]string, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == "system" && !systemRole {
			lines = append(lines, "(System Instruction: "+msg.Content+")")
			continue
		}
		lines = append(lines, msg.Role+": "+msg.Content)
	}

	return strings.Join(lines, "\n\n")
}
