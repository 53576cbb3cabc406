// Package server assembles the HTTP service around the buyer agent.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	nostrplugin "github.com/snovalley/buyer-agent/plugin/nostr"
	"github.com/snovalley/buyer-agent/server/router/api"
)

// warmupCommand is the fixed agent command issued on boot to populate the
// seller knowledge base before the listener accepts traffic.
const warmupCommand = "download the sellers from the marketplace"

// Server is the HTTP front of the buyer agent.
type Server struct {
	echo    *echo.Echo
	addr    string
	agent   api.Runner
	profile *nostrplugin.Profile
	relay   string
}

// New builds the echo instance and registers routes and middleware.
func New(addr string, agentRunner api.Runner, agentProfile *nostrplugin.Profile, relay string) *Server {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: shortuuid.New,
	}))
	e.Use(requestLogger)

	api.NewAPIService(agentRunner).RegisterRoutes(e)

	return &Server{
		echo:    e,
		addr:    addr,
		agent:   agentRunner,
		profile: agentProfile,
		relay:   relay,
	}
}

// Warmup publishes the agent profile and refreshes the seller knowledge
// base. It blocks readiness and can take on the order of a minute.
func (s *Server) Warmup(ctx context.Context) error {
	if err := s.profile.Publish(ctx, s.relay); err != nil {
		// The service can answer from an existing knowledge base even
		// when the relay rejects the profile event.
		slog.Warn("failed to publish agent profile", "relay", s.relay, "err", err)
	}

	slog.Info("refreshing seller knowledge base", "relay", s.relay)
	start := time.Now()
	result, err := s.agent.Run(ctx, warmupCommand)
	if err != nil {
		return errors.Wrap(err, "startup seller refresh")
	}
	slog.Info("seller knowledge base ready", "took", time.Since(start), "result", result)
	return nil
}

// Start serves HTTP until the listener fails or the process exits.
func (s *Server) Start() error {
	slog.Info("listening", "addr", s.addr)
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.echo,
	}
	return srv.ListenAndServe()
}

// requestLogger logs one line per request with method, path, status and latency.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := next(c)
		var status int
		if res, uerr := echo.UnwrapResponse(c.Response()); uerr == nil {
			status = res.Status
		}
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		slog.Info("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"took", time.Since(start),
		)
		return err
	}
}
