package llamacpp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"promptbridge/internal/config"
	"promptbridge/internal/provider"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "promptbridge/0.1"

	dataPrefix = "data: "
)

// Provider implements the inference capability against a llama.cpp-style
// completion server.
type Provider struct {
	name          string
	baseURL       string
	client        *http.Client
	catalog       *provider.Catalog
	completionURL string
}

// New creates a llama.cpp backed provider serving the configured model list.
func New(name string, cfg config.BackendConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	catalog := provider.NewCatalog()
	if err := catalog.Add(cfg.Models...); err != nil {
		return nil, fmt.Errorf("register models for provider %q: %w", name, err)
	}

	return &Provider{
		name:          name,
		baseURL:       baseURL,
		client:        client,
		catalog:       catalog,
		completionURL: baseURL + "/completion",
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Models(ctx context.Context) ([]string, error) {
	return p.catalog.Names(), nil
}

// Ask submits the prompt and blocks for the complete result.
func (p *Provider) Ask(ctx context.Context, prompt string, opts provider.AskOptions) (string, error) {
	if !p.catalog.Has(opts.Model) {
		return "", fmt.Errorf("%w: %s", provider.ErrUnknownModel, opts.Model)
	}

	httpReq, err := p.newRequest(ctx, completionPayload{
		Prompt: prompt,
		Model:  opts.Model,
	})
	if err != nil {
		return "", err
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llamacpp completion request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return "", parseAPIError(httpResp)
	}

	var resp completionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	return resp.Content, nil
}

// AskStream submits the prompt and returns a channel of incremental text
// fragments. The channel closes after the terminal element; a failure after
// the stream opened is delivered as a Fragment carrying the error.
func (p *Provider) AskStream(ctx context.Context, prompt string, opts provider.AskOptions) (<-chan provider.Fragment, error) {
	if !p.catalog.Has(opts.Model) {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownModel, opts.Model)
	}

	httpReq, err := p.newRequest(ctx, completionPayload{
		Prompt: prompt,
		Model:  opts.Model,
		Stream: true,
	})
	if err != nil {
		return nil, err
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llamacpp stream request failed: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		defer httpResp.Body.Close()
		return nil, parseAPIError(httpResp)
	}

	fragments := make(chan provider.Fragment)
	go p.consumeStream(ctx, httpResp.Body, fragments)
	return fragments, nil
}

// consumeStream reads "data: {json}" lines from the response body until the
// terminal stop chunk, a decode failure, or context cancellation.
func (p *Provider) consumeStream(ctx context.Context, body io.ReadCloser, fragments chan<- provider.Fragment) {
	defer close(fragments)
	defer body.Close()

	emit := func(frag provider.Fragment) bool {
		select {
		case fragments <- frag:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, dataPrefix)

		var chunk streamChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			emit(provider.Fragment{Err: fmt.Errorf("decode stream chunk: %w", err)})
			return
		}

		if chunk.Content != "" {
			if !emit(provider.Fragment{Text: chunk.Content}) {
				return
			}
		}
		if chunk.Stop {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		emit(provider.Fragment{Err: fmt.Errorf("read stream: %w", err)})
	}
}

func (p *Provider) newRequest(ctx context.Context, payload completionPayload) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.completionURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)

	return req, nil
}

type completionPayload struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Stream bool   `json:"stream,omitempty"`
}

type completionResponse struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

type streamChunk struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

type apiErrorResponse struct {
	Error apiErrorObject `json:"error"`
}

type apiErrorObject struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("upstream error status %d and failed to read body: %w", resp.StatusCode, err)
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("llamacpp error (%s): %s", apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("upstream error status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
