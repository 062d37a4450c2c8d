package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Server exposes /metrics and a /health liveness check for long-running commands.
type Server struct {
	addr string
	echo *echo.Echo
	log  zerolog.Logger
}

// NewServer builds the Echo instance with the metrics routes registered.
func NewServer(addr string, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", liveness)

	return &Server{addr: addr, echo: e, log: log}
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("metrics server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.echo.Shutdown(context.Background())
	}()
}

func liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
