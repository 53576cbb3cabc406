// Package api exposes the chat endpoint of the buyer agent service.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"
)

// Runner is the agent contract the endpoint depends on.
type Runner interface {
	Run(ctx context.Context, query string) (string, error)
}

// clientMessage is one role-tagged message of the chat transcript.
type clientMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Messages []clientMessage `json:"messages"`
}

// APIService wires the agent into the router.
type APIService struct {
	Agent Runner
}

// NewAPIService creates the service.
func NewAPIService(agent Runner) *APIService {
	return &APIService{Agent: agent}
}

// RegisterRoutes attaches the chat endpoint to e.
func (s *APIService) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", s.handleChat)
}

// handleChat runs the agent on the last message of the transcript and
// streams the reply as two data-stream frames. The `protocol` query
// parameter is accepted for client compatibility but unused.
func (s *APIService) handleChat(c *echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages required")
	}
	query := req.Messages[len(req.Messages)-1].Content

	reply, err := s.Agent.Run(c.Request().Context(), query)
	if err != nil {
		slog.Error("agent run failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rw := c.Response()
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.Header().Set(DataStreamHeader, DataStreamVersion)
	rw.WriteHeader(http.StatusOK)
	return WriteDataStream(rw, reply)
}
