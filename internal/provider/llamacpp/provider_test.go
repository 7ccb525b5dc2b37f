package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptbridge/internal/config"
	"promptbridge/internal/provider"
)

func newTestProvider(t *testing.T, handler http.Handler, models ...string) (*Provider, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	if len(models) == 0 {
		models = []string{"mistral-7b-instruct"}
	}

	p, err := New("llamacpp", config.BackendConfig{
		BaseURL: upstream.URL,
		Models:  models,
	}, upstream.Client())
	require.NoError(t, err)

	return p, upstream
}

func TestAsk(t *testing.T) {
	var gotPrompt string
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/completion", r.URL.Path)

		var payload struct {
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotPrompt = payload.Prompt
		assert.False(t, payload.Stream)

		json.NewEncoder(w).Encode(map[string]any{"content": "hello there", "stop": true})
	}))

	content, err := p.Ask(context.Background(), "<s>[INST] hi [/INST]", provider.AskOptions{Model: "mistral-7b-instruct"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", content)
	assert.Equal(t, "<s>[INST] hi [/INST]", gotPrompt)
}

func TestAskUnknownModel(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := p.Ask(context.Background(), "prompt", provider.AskOptions{Model: "gpt-4o"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrUnknownModel))
	assert.Zero(t, calls.Load(), "no upstream request expected for unknown model")
}

func TestAskUpstreamError(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model not loaded", "type": "server_error"},
		})
	}))

	_, err := p.Ask(context.Background(), "prompt", provider.AskOptions{Model: "mistral-7b-instruct"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestAskStream(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Stream bool `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.True(t, payload.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"content\":\"hel\",\"stop\":false}\n\n")
		fmt.Fprint(w, "data: {\"content\":\"lo\",\"stop\":false}\n\n")
		fmt.Fprint(w, "data: {\"content\":\"\",\"stop\":true}\n\n")
	}))

	fragments, err := p.AskStream(context.Background(), "prompt", provider.AskOptions{Model: "mistral-7b-instruct"})
	require.NoError(t, err)

	var texts []string
	for frag := range fragments {
		require.NoError(t, frag.Err)
		texts = append(texts, frag.Text)
	}
	assert.Equal(t, []string{"hel", "lo"}, texts)
}

func TestAskStreamUnknownModel(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := p.AskStream(context.Background(), "prompt", provider.AskOptions{Model: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrUnknownModel))
}

func TestAskStreamMalformedChunk(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"content\":\"ok\",\"stop\":false}\n\n")
		fmt.Fprint(w, "data: {not json}\n\n")
	}))

	fragments, err := p.AskStream(context.Background(), "prompt", provider.AskOptions{Model: "mistral-7b-instruct"})
	require.NoError(t, err)

	var texts []string
	var streamErr error
	for frag := range fragments {
		if frag.Err != nil {
			streamErr = frag.Err
			continue
		}
		texts = append(texts, frag.Text)
	}

	assert.Equal(t, []string{"ok"}, texts)
	require.Error(t, streamErr)
	assert.Contains(t, streamErr.Error(), "decode stream chunk")
}

func TestAskStreamUpstreamRejects(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))

	_, err := p.AskStream(context.Background(), "prompt", provider.AskOptions{Model: "mistral-7b-instruct"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestModels(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		"mistral-7b-instruct", "llama3.1-8b-instruct")

	names, err := p.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mistral-7b-instruct", "llama3.1-8b-instruct"}, names)
}

func TestNewValidation(t *testing.T) {
	_, err := New("llamacpp", config.BackendConfig{BaseURL: "", Models: []string{"m"}}, http.DefaultClient)
	assert.Error(t, err)

	_, err = New("llamacpp", config.BackendConfig{BaseURL: "http://x", Models: []string{"m", "m"}}, http.DefaultClient)
	assert.Error(t, err)

	_, err = New("llamacpp", config.BackendConfig{BaseURL: "http://x", Models: []string{"m"}}, nil)
	assert.Error(t, err)
}
