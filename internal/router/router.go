package router

import (
	"context"
	"errors"
	"fmt"

	"promptbridge/internal/models"
	"promptbridge/internal/prompt"
	"promptbridge/internal/provider"
)

// ErrEmptyPrompt indicates formatting produced nothing for a non-empty
// message sequence.
var ErrEmptyPrompt = errors.New("formatted prompt is empty")

// Router turns validated chat requests into inference invocations: it applies
// the default model, renders the prompt, and dispatches to the capability.
type Router struct {
	capability   provider.Provider
	defaultModel string
}

// New constructs a router backed by the given inference capability.
func New(capability provider.Provider, defaultModel string) *Router {
	return &Router{
		capability:   capability,
		defaultModel: defaultModel,
	}
}

// Chat resolves the request and blocks for the complete result.
func (r *Router) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResult, error) {
	rendered, modelID, err := r.resolve(req)
	if err != nil {
		return nil, err
	}

	content, err := r.capability.Ask(ctx, rendered, provider.AskOptions{Model: modelID})
	if err != nil {
		return nil, fmt.Errorf("provider %s ask: %w", r.capability.Name(), err)
	}

	return &models.ChatResult{
		Model:   modelID,
		Content: content,
	}, nil
}

// ChatStream resolves the request and returns the capability's fragment
// stream together with the effective model identifier.
func (r *Router) ChatStream(ctx context.Context, req models.ChatRequest) (<-chan provider.Fragment, string, error) {
	rendered, modelID, err := r.resolve(req)
	if err != nil {
		return nil, "", err
	}

	fragments, err := r.capability.AskStream(ctx, rendered, provider.AskOptions{Model: modelID})
	if err != nil {
		return nil, "", fmt.Errorf("provider %s ask stream: %w", r.capability.Name(), err)
	}
	return fragments, modelID, nil
}

// Models returns the capability's ordered model list.
func (r *Router) Models(ctx context.Context) ([]string, error) {
	return r.capability.Models(ctx)
}

func (r *Router) resolve(req models.ChatRequest) (rendered, modelID string, err error) {
	modelID = req.Model
	if modelID == "" {
		modelID = r.defaultModel
	}

	rendered = prompt.Format(req.Messages, modelID)
	if rendered == "" {
		return "", "", ErrEmptyPrompt
	}
	return rendered, modelID, nil
}
