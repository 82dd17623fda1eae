package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SwingLab/pkg/http/middleware"
	"SwingLab/pkg/logger"
)

type Server struct {
	echo *echo.Echo
	log  *logger.Logger
	port int

	shutdownTimeout time.Duration
}

type ServerOption func(*Server)

func WithPort(port int) ServerOption {
	return func(s *Server) {
		s.port = port
	}
}

func WithShutdownTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.echo.Server.ReadTimeout = read
		s.echo.Server.WriteTimeout = write
	}
}

func NewServer(log *logger.Logger, opts ...ServerOption) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:            e,
		log:             log,
		port:            8080,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLogging(log))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, "ok")
	})

	return s
}

func (s *Server) Register(handlers ...Handler) {
	for _, h := range handlers {
		h.RegisterRoutes(s.echo)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("http server listening", logger.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
