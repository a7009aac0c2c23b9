package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	logx "formrelay/pkg/logx"
)

// Server owns the echo instance and its route table.
type Server struct {
	e    *echo.Echo
	log  logx.Logger
	addr string
}

func NewServer(addr string, h *Handler, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(log))

	e.GET("/", h.Index)
	e.GET("/health", h.Health)
	e.POST("/verify", h.Verify)
	e.POST("/submit-application", h.SubmitApplication)

	return &Server{e: e, log: log, addr: addr}
}

// Start serves until Shutdown is called. A closed-server exit is not an error.
func (s *Server) Start() error {
	s.log.Info("http server starting", logx.String("addr", s.addr))
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func requestLogger(log logx.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Debug("request",
				logx.String("method", c.Request().Method),
				logx.String("path", c.Request().URL.Path),
				logx.Int("status", c.Response().Status),
				logx.Duration("dur", time.Since(start)),
			)
			return err
		}
	}
}
