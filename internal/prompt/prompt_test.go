package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptbridge/internal/models"
)

func msg(role, content string) models.Message {
	return models.Message{Role: role, Content: content}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		modelID    string
		family     Family
		systemRole bool
	}{
		{"llama3.1-8b-instruct", FamilyLlama3, false},
		{"Meta-Llama3.1-70B", FamilyLlama3, false},
		{"llama-4-scout", FamilyLlama3, false},
		{"llama3-8b", FamilyLlama3, false},
		{"llama-3.3-70b", FamilyLlama3, false},
		{"llama2-7b-chat", FamilyLlama2, false},
		{"CodeLlama-13b", FamilyLlama2, false},
		{"mistral-7b-instruct", FamilyMistral, false},
		{"Mistral-Nemo-12B", FamilyMistral, false},
		{"codestral-22b", FamilyMistral, false},
		{"anthropic.claude-v2", FamilyClaude, false},
		{"claude-3-sonnet", FamilyClaude, false},
		{"grok-2", FamilyGrok, false},
		{"deepseek-coder-6.7b", FamilyLlama2, false},
		{"openai/gpt-4o", FamilySimpleChat, true},
		{"google/gemma-2", FamilySimpleChat, false},
		{"gemini-1.5-pro", FamilySimpleChat, false},
		{"qwen2.5-7b", FamilyDefault, true},
		{"", FamilyDefault, true},
	}

	for _, tc := range tests {
		t.Run(tc.modelID, func(t *testing.T) {
			family, systemRole := Classify(tc.modelID)
			assert.Equal(t, tc.family, family)
			assert.Equal(t, tc.systemRole, systemRole)
		})
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	upperFamily, _ := Classify("META-LLAMA3.1-70B")
	lowerFamily, _ := Classify("llama3.1-instruct")
	assert.Equal(t, upperFamily, lowerFamily)

	a, _ := Classify("LLAMA2")
	b, _ := Classify("codellama-13b")
	assert.Equal(t, a, b)
}

func TestClassifyPriorityOrder(t *testing.T) {
	// "llama3.1" contains "llama3"; the more specific rule must win before
	// the generic one is consulted.
	family, _ := Classify("llama3.1")
	assert.Equal(t, FamilyLlama3, family)

	// "codellama" also contains "llama"; it must land on llama2, not default.
	family, _ = Classify("codellama")
	assert.Equal(t, FamilyLlama2, family)
}

func TestFormatLlama3(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
	}, "llama3.1-8b")

	want := "<|begin_of_text|>" +
		"<|start_header_id|>system<|end_header_id|>\n\nbe brief<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nhi<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, want, got)
}

func TestFormatLlama3UnknownRoleCollapsesToUser(t *testing.T) {
	got := Format([]models.Message{msg("tool", "output")}, "llama3-8b")
	assert.Contains(t, got, "<|start_header_id|>user<|end_header_id|>\n\noutput<|eot_id|>")
	assert.NotContains(t, got, "tool")
}

func TestFormatLlama2(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
		msg("assistant", "hello"),
		msg("user", "bye"),
	}, "llama2-7b-chat")

	want := "<s>" +
		"[INST] <<SYS>>\nbe brief\n<</SYS>> [/INST]" +
		"[INST] hi [/INST]" +
		"hello</s><s>" +
		"[INST] bye [/INST]"
	assert.Equal(t, want, got)
}

func TestFormatLlama2SystemRenderedOnce(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "SYSTEMTEXT"),
		msg("user", "hi"),
	}, "codellama-13b")

	assert.Equal(t, 1, strings.Count(got, "SYSTEMTEXT"))
	assert.NotContains(t, got, "[INST] SYSTEMTEXT")
}

func TestFormatLlama2NeverEndsWithDanglingSequenceStart(t *testing.T) {
	tests := [][]models.Message{
		{msg("user", "hi"), msg("assistant", "hello")},
		{msg("assistant", "hello")},
		{msg("system", "s"), msg("user", "u"), msg("assistant", "a")},
	}

	for _, messages := range tests {
		got := Format(messages, "llama2")
		assert.False(t, strings.HasSuffix(got, "<s>"), "prompt %q ends with <s>", got)
	}
}

func TestFormatLlama2NonLeadingSystemIgnored(t *testing.T) {
	// Only a system message in first position gets the system block.
	got := Format([]models.Message{
		msg("user", "hi"),
		msg("system", "late system"),
	}, "llama2")

	assert.NotContains(t, got, "late system")
}

func TestFormatMistral(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "ignored"),
		msg("user", "hi"),
		msg("assistant", "hello"),
		msg("user", "bye"),
	}, "mistral-7b-instruct")

	want := "<s>[INST] hi [/INST]hello</s>[INST] bye [/INST]"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "ignored")
}

func TestFormatClaude(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
		msg("assistant", "hello"),
	}, "claude-3-sonnet")

	want := "be brief\n\nUser: hi\n\nAssistant: hello\n\nAssistant:"
	assert.Equal(t, want, got)
}

func TestFormatGrok(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
	}, "grok-2")

	want := "System Instruction:\nbe brief\n\nUser:\nhi\n\nAssistant:\n"
	assert.Equal(t, want, got)
}

func TestFormatSimpleChatWithSystemRole(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
	}, "openai/gpt-4o")

	want := "system: be brief\n\nuser: hi"
	assert.Equal(t, want, got)
}

func TestFormatSimpleChatWithoutSystemRole(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
	}, "gemini-1.5-pro")

	want := "(System Instruction: be brief)\n\nuser: hi"
	assert.Equal(t, want, got)
}

func TestFormatDefault(t *testing.T) {
	got := Format([]models.Message{
		msg("system", "be brief"),
		msg("user", "hi"),
		msg("assistant", "hello"),
	}, "qwen2.5-7b")

	want := "system: be brief\n\nuser: hi\n\nassistant: hello"
	assert.Equal(t, want, got)
}

func TestFormatIsDeterministic(t *testing.T) {
	messages := []models.Message{
		msg("system", "s"),
		msg("user", "u"),
		msg("assistant", "a"),
		msg("user", "u2"),
	}
	modelIDs := []string{
		"llama3.1", "llama2", "mistral", "claude", "grok",
		"deepseek", "openai", "gemini", "something-else",
	}

	for _, id := range modelIDs {
		first := Format(messages, id)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Format(messages, id), "model %s", id)
		}
	}
}

func TestFormatEmptyContentNeverPanics(t *testing.T) {
	modelIDs := []string{
		"llama3.1", "llama2", "mistral", "claude", "grok", "openai", "gemini", "unknown",
	}
	roles := []string{"system", "user", "assistant", "tool", ""}

	for _, id := range modelIDs {
		for _, role := range roles {
			require.NotPanics(t, func() {
				Format([]models.Message{msg(role, "")}, id)
			}, "model %s role %q", id, role)
		}
	}
}

func TestFormatLlama2OnlyUnrecognisedRolesYieldsEmptyPrompt(t *testing.T) {
	// The trimmed sequence-start marker is all that would remain; the
	// completion handler rejects this as an empty prompt.
	got := Format([]models.Message{msg("tool", "x")}, "llama2")
	assert.Empty(t, got)
}
