package models

// Message represents a single conversational message in the unified schema.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is the canonical representation of a chat completion request.
type ChatRequest struct {
	Model    string
	Messages []Message
	Stream   bool
}

// ChatResult captures a finished inference run in the unified schema.
type ChatResult struct {
	Model   string
	Content string
}
