// Package healthcheck serves liveness endpoints for the bot process.
package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hazuki-io/gemcord/internal/version"
)

// ConversationCounter reports the number of tracked conversation keys.
type ConversationCounter interface {
	Keys() int
}

// Server exposes /ping and /health over HTTP.
type Server struct {
	echo      *echo.Echo
	addr      string
	startedAt time.Time
	counter   ConversationCounter
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Conversations int    `json:"conversations"`
}

// NewServer builds the health server. counter may be nil.
func NewServer(log *slog.Logger, addr string, counter ConversationCounter) *Server {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	s := &Server{
		echo:      e,
		addr:      addr,
		startedAt: time.Now(),
		counter:   counter,
	}
	e.GET("/ping", s.ping)
	e.GET("/health", s.health)
	return s
}

func (s *Server) ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (s *Server) health(c echo.Context) error {
	resp := healthResponse{
		Status:        "ok",
		Version:       version.GetInfo(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if s.counter != nil {
		resp.Conversations = s.counter.Keys()
	}
	return c.JSON(http.StatusOK, resp)
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
