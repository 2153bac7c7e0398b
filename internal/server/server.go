// Package server exposes a session over HTTP: commands as JSON endpoints,
// snapshots as JSON or MessagePack, change notifications over a WebSocket,
// and pipeline metrics in the Prometheus text format.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/session"
)

// Dependencies holds what the routes need.
type Dependencies struct {
	Session *session.Session
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
	// RequestLog receives one line per request. Nil disables request logging.
	RequestLog io.Writer
}

// Server is the HTTP front end for one session.
type Server struct {
	echo     *echo.Echo
	handlers *Handlers
	log      logger.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// New builds the echo instance and registers every route.
func New(deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Noop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	if deps.RequestLog != nil {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Output: deps.RequestLog,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/ws")
			},
		}))
	}
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s := &Server{
		echo:     e,
		handlers: NewHandlers(deps.Session, log),
		log:      log,
		done:     make(chan struct{}),
	}
	s.registerRoutes(deps.Gatherer)
	return s
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	h := s.handlers

	s.echo.GET("/health", h.HandleHealth)
	s.echo.GET("/ws", h.HandleWebSocket(s.done))
	if gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api")
	api.GET("/status", h.HandleStatus)
	api.GET("/snapshot", h.HandleSnapshot)
	api.GET("/snapshot/msgpack", h.HandleSnapshotMsgpack)
	api.POST("/connect", h.HandleConnect)
	api.POST("/disconnect", h.HandleDisconnect)
	api.POST("/clear", h.HandleClear)
	api.GET("/widgets", h.HandleListWidgets)
	api.POST("/widgets", h.HandleAddWidget)
	api.DELETE("/widgets/:id", h.HandleRemoveWidget)
	api.GET("/ports", h.HandleListPorts)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Serve accepts connections on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.echo.Listener = ln
	s.log.Info("serving on http://%s", ln.Addr())
	if err := s.echo.Start(""); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.WrapWithCode(err, errors.ErrServe,
			"HTTP server stopped unexpectedly", "")
	}
	return nil
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			"Failed to listen on "+addr,
			"Pick another address with --addr or server.addr in .serialmon.yaml")
	}
	return s.Serve(ln)
}

// Shutdown tells WebSocket clients to go away, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	if err := s.echo.Shutdown(ctx); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe, "HTTP server shutdown", "")
	}
	return nil
}
