package prompt

import (
	"strings"

	"promptbridge/internal/models"
)

// Family identifies one prompt-template grammar.
type Family int

const (
	FamilyDefault Family = iota
	FamilyLlama3
	FamilyLlama2
	FamilyMistral
	FamilyClaude
	FamilyGrok
	FamilySimpleChat
)

// rule associates model-identifier substrings with a format family.
type rule struct {
	substrings []string
	family     Family
	systemRole bool // simple-chat grammars only: whether a system role line is allowed
}

// rules is evaluated top to bottom; the first substring match wins, so more
// specific identifiers must precede the generic ones they contain.
var rules = []rule{
	{substrings: []string{"llama3.1", "llama-4"}, family: FamilyLlama3},
	{substrings: []string{"llama3", "llama-3.3"}, family: FamilyLlama3},
	{substrings: []string{"llama2", "codellama"}, family: FamilyLlama2},
	{substrings: []string{"mistral", "nemo", "codestral"}, family: FamilyMistral},
	{substrings: []string{"anthropic", "claude"}, family: FamilyClaude},
	{substrings: []string{"grok"}, family: FamilyGrok},
	{substrings: []string{"deepseek"}, family: FamilyLlama2},
	{substrings: []string{"openai"}, family: FamilySimpleChat, systemRole: true},
	{substrings: []string{"google", "gemini"}, family: FamilySimpleChat},
}

// Classify resolves the format family for a model identifier using
// case-insensitive substring matching. Unknown identifiers map to
// FamilyDefault, which renders system messages as plain role lines.
func Classify(modelID string) (Family, bool) {
	id := strings.ToLower(modelID)
	for _, r := range rules {
		for _, sub := range r.substrings {
			if strings.Contains(id, sub) {
				return r.family, r.systemRole
			}
		}
	}
	return FamilyDefault, true
}

// Format renders an ordered message sequence into the native prompt string of
// the family selected by modelID. It is deterministic and never fails; the
// caller is responsible for rejecting empty message sequences.
func Format(messages []models.Message, modelID string) string {
	family, systemRole := Classify(modelID)

	switch family {
	case FamilyLlama3:
		return formatLlama3(messages)
	case FamilyLlama2:
		return formatLlama2(messages)
	case FamilyMistral:
		return formatMistral(messages)
	case FamilyClaude:
		return formatClaude(messages)
	case FamilyGrok:
		return formatGrok(messages)
	default:
		return formatSimple(messages, systemRole)
	}
}
