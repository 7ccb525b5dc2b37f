package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"promptbridge/internal/models"
)

var (
	// ErrMissingMessages indicates the messages field is absent or not a
	// non-empty sequence.
	ErrMissingMessages = errors.New("messages must be a non-empty array")

	errInvalidContent = errors.New("invalid message content")
)

// ChatCompletionRequest models the OpenAI chat/completions request payload.
type ChatCompletionRequest struct {
	Model    string
	Messages []ChatMessage
	Stream   bool
}

// UnmarshalJSON implements custom parsing. The model field is optional (the
// server applies its configured default) and message roles are deliberately
// not restricted: unrecognised roles are handled per format family by the
// prompt renderer.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Model    string          `json:"model"`
		Messages json.RawMessage `json:"messages"`
		Stream   bool            `json:"stream"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode chat request: %w", err)
	}

	if len(raw.Messages) == 0 || string(raw.Messages) == "null" {
		return ErrMissingMessages
	}

	var messages []ChatMessage
	if err := json.Unmarshal(raw.Messages, &messages); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingMessages, err)
	}
	if len(messages) == 0 {
		return ErrMissingMessages
	}

	r.Model = strings.TrimSpace(raw.Model)
	r.Messages = messages
	r.Stream = raw.Stream
	return nil
}

// ToUnified converts the OpenAI request into the canonical format.
func (r ChatCompletionRequest) ToUnified() models.ChatRequest {
	msgs := make([]models.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, models.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return models.ChatRequest{
		Model:    r.Model,
		Messages: msgs,
		Stream:   r.Stream,
	}
}

// ChatMessage captures a single message within the chat request.
type ChatMessage struct {
	Role    string
	Content string
}

// UnmarshalJSON supports string and array-of-text content formats.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	content, err := extractMessageContent(raw.Content)
	if err != nil {
		return err
	}

	m.Role = strings.TrimSpace(raw.Role)
	m.Content = content
	return nil
}

func extractMessageContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var segments []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &segments); err == nil {
		var builder strings.Builder
		for _, segment := range segments {
			if segment.Type != "text" {
				return "", fmt.Errorf("%w: segment type %q not supported", errInvalidContent, segment.Type)
			}
			builder.WriteString(segment.Text)
		}
		return builder.String(), nil
	}

	return "", fmt.Errorf("%w: unsupported content structure", errInvalidContent)
}
