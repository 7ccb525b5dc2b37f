package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"promptbridge/internal/models"
	"promptbridge/internal/translator"
)

const streamDoneSentinel = "data: [DONE]\n\n"

// streamCompletion frames the capability's fragment sequence as an SSE chunk
// stream. Write failures mean the client went away; the loop abandons the
// stream without retrying.
func (s *Server) streamCompletion(c echo.Context, req models.ChatRequest) error {
	fragments, modelID, err := s.router.ChatStream(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}

	writer := c.Response().Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		slog.Error("http writer does not support flushing")
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: "server does not support streaming responses",
		}
	}

	header := c.Response().Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")

	c.Response().WriteHeader(http.StatusOK)

	id := translator.NewCompletionID()
	created := time.Now().Unix()

	for frag := range fragments {
		if frag.Err != nil {
			// Surface the failure in-band and close; the stream is
			// already committed with status 200.
			slog.Error("inference stream failed", "model", modelID, "err", frag.Err)
			_ = writeSSEData(writer, errorBody{Error: frag.Err.Error()})
			flusher.Flush()
			return nil
		}

		chunk := translator.NewChunk(id, modelID, frag.Text, nil, created)
		if err := writeSSEData(writer, chunk); err != nil {
			slog.Warn("client disconnected mid-stream", "err", err)
			return nil
		}
		flusher.Flush()
	}

	finish := "stop"
	terminal := translator.NewChunk(id, modelID, "", &finish, created)
	if err := writeSSEData(writer, terminal); err != nil {
		return nil
	}
	if _, err := io.WriteString(writer, streamDoneSentinel); err != nil {
		return nil
	}
	flusher.Flush()
	return nil
}

func writeSSEData(w io.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal SSE payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write SSE data: %w", err)
	}
	return nil
}
