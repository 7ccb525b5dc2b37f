package translator

import (
	"strconv"

	"github.com/google/uuid"
)

// NewCompletionID generates a chat completion identifier.
func NewCompletionID() string {
	return "chatcmpl-" + uuid.New().String()[:8]
}

// Usage mirrors the token usage block in OpenAI responses. The server does
// not count tokens; the block is emitted zero-valued.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseMessage is the assistant message inside a completed response.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice represents the single choice in a completed response.
type ChatChoice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ChatCompletionResponse models the OpenAI-compatible chat response.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// NewChatCompletion constructs a terminal response with finish reason "stop".
func NewChatCompletion(id, model, content string, createdUnix int64) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: createdUnix,
		Model:   model,
		Choices: []ChatChoice{
			{
				Index: 0,
				Message: ResponseMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
	}
}

// Delta carries the incremental payload of a streamed chunk. Content uses a
// pointer so that the terminal chunk serialises with an empty delta.
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ChunkChoice represents the single choice in a streamed chunk.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// ChatCompletionChunk models one streamed response chunk.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// NewChunk constructs a streamed chunk carrying delta as incremental content.
// An empty delta with a non-nil finishReason produces the terminal chunk.
func NewChunk(id, model, delta string, finishReason *string, createdUnix int64) ChatCompletionChunk {
	d := Delta{Role: "assistant"}
	if delta != "" {
		d.Content = &delta
	}

	return ChatCompletionChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: createdUnix,
		Model:   model,
		Choices: []ChunkChoice{
			{
				Index:        0,
				Delta:        d,
				FinishReason: finishReason,
			},
		},
	}
}

// ModelEntry is one element of the model listing.
type ModelEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModelList tags each model name with its stable positional index as id,
// preserving the capability's ordering.
func ModelList(names []string) []ModelEntry {
	entries := make([]ModelEntry, 0, len(names))
	for i, name := range names {
		entries = append(entries, ModelEntry{
			ID:   strconv.Itoa(i),
			Name: name,
		})
	}
	return entries
}
