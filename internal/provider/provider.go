package provider

import (
	"context"
	"errors"
)

// ErrUnknownModel indicates the capability does not serve the requested model.
var ErrUnknownModel = errors.New("unknown model")

// Fragment is one element of a streamed inference result. A Fragment with a
// non-nil Err is terminal; the channel is closed after the final element.
type Fragment struct {
	Text string
	Err  error
}

// AskOptions carries per-invocation inference parameters.
type AskOptions struct {
	Model string
}

// Provider is the inference capability behind the HTTP surface. Ask blocks
// until the full result is available; AskStream returns a lazy sequence of
// text fragments consumed by a single framing loop.
type Provider interface {
	Name() string
	Models(ctx context.Context) ([]string, error)
	Ask(ctx context.Context, prompt string, opts AskOptions) (string, error)
	AskStream(ctx context.Context, prompt string, opts AskOptions) (<-chan Fragment, error)
}
