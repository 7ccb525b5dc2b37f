package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"promptbridge/internal/config"
	"promptbridge/internal/router"
	"promptbridge/internal/translator"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

// Lifecycle states of the server handle. /kill transitions
// listening -> stopping atomically; a second kill is rejected.
const (
	stateStarting int32 = iota
	stateListening
	stateStopping
	stateStopped
)

type Server struct {
	cfg     config.Config
	router  *router.Router
	app     *echo.Echo
	address string
	state   atomic.Int32
	kill    chan struct{}
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, rt *router.Router) (*Server, error) {
	if rt == nil {
		return nil, errors.New("router must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))

	srv := &Server{
		cfg:     cfg,
		router:  rt,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
		kill:    make(chan struct{}),
	}
	srv.state.Store(stateStarting)

	srv.registerRoutes()

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// /kill request initiates shutdown.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	slog.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:        s.address,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
		// WriteTimeout intentionally omitted: streaming responses can
		// legitimately run for minutes.
	}

	s.state.Store(stateListening)

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.state.Store(stateStopping)
		return s.shutdown()
	case <-s.kill:
		slog.Info("shutdown requested via /kill")
		return s.shutdown()
	case err := <-errCh:
		s.state.Store(stateStopped)
		return err
	}
}

func (s *Server) shutdown() error {
	defer s.state.Store(stateStopped)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := s.app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server shutdown complete")
	return nil
}

func (s *Server) registerRoutes() {
	s.app.GET("/v1/models", s.handleModels)
	s.app.POST("/v1/chat/completions", s.handleChatCompletions)
	s.app.POST("/kill", s.handleKill)
}

func (s *Server) handleModels(c echo.Context) error {
	names, err := s.router.Models(c.Request().Context())
	if err != nil {
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("list models: %v", err),
		}
	}
	return c.JSON(http.StatusOK, translator.ModelList(names))
}

func (s *Server) handleChatCompletions(c echo.Context) error {
	var req translator.ChatCompletionRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	unified := req.ToUnified()
	if unified.Stream {
		return s.streamCompletion(c, unified)
	}

	result, err := s.router.Chat(c.Request().Context(), unified)
	if err != nil {
		return toHTTPError(err)
	}

	resp := translator.NewChatCompletion(
		translator.NewCompletionID(), result.Model, result.Content, time.Now().Unix())
	return c.JSON(http.StatusOK, resp)
}

// handleKill acknowledges the shutdown request and signals the run loop. The
// response is written before shutdown begins so the caller always sees it;
// in-flight requests complete or fail on their own.
func (s *Server) handleKill(c echo.Context) error {
	if !s.state.CompareAndSwap(stateListening, stateStopping) {
		return requestError{
			Status:  http.StatusConflict,
			Message: "shutdown already in progress",
		}
	}

	err := c.JSON(http.StatusOK, map[string]string{"message": "server shutting down"})
	close(s.kill)
	return err
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
			}
		}
		if errors.Is(err, translator.ErrMissingMessages) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
		}
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorBody{Error: message})
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = writeError(c, reqErr.Status, reqErr.Message)
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			_ = writeError(c, http.StatusNotFound, "Endpoint not found")
		default:
			_ = writeError(c, httpErr.Code, fmt.Sprintf("%v", httpErr.Message))
		}
		return
	}

	_ = writeError(c, http.StatusInternalServerError, "internal server error")
}

func toHTTPError(err error) error {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	if errors.Is(err, router.ErrEmptyPrompt) {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	return requestError{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
	}
}

func printStartupBanner(port int) {
	fmt.Println()
	fmt.Println("promptbridge ready")
	fmt.Printf("Listening on http://127.0.0.1:%d\n", port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /v1/models")
	fmt.Println("  POST /v1/chat/completions")
	fmt.Println("  POST /kill")
}
