package factory

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"promptbridge/internal/config"
	"promptbridge/internal/provider"
	"promptbridge/internal/provider/llamacpp"
)

const (
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// NewConfiguredProvider constructs the inference capability from configuration.
func NewConfiguredProvider(cfg config.Config) (provider.Provider, error) {
	client := newHTTPClient(time.Duration(cfg.Backend.TimeoutSeconds) * time.Second)

	p, err := llamacpp.New("llamacpp", cfg.Backend, client)
	if err != nil {
		return nil, fmt.Errorf("initialise llamacpp provider: %w", err)
	}
	return p, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
