// Package server exposes a dispatcher over HTTP under /api.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/dispatch"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/logger"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  []errs.FieldError `json:"fields,omitempty"`
}

// Config controls the HTTP transport.
type Config struct {
	Addr         string
	DefaultOwner string
}

type Server struct {
	cfg        Config
	dispatcher dispatch.Requester
	router     *gin.Engine
}

func New(cfg Config, d dispatch.Requester) *Server {
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultAddr
	}
	if cfg.DefaultOwner == "" {
		cfg.DefaultOwner = constants.DefaultOwnerID
	}

	s := &Server{cfg: cfg, dispatcher: d}
	s.router = s.routes()
	return s
}

// Handler returns the router for use with httptest or a custom listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.CustomRecovery(recoverToJSON))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": constants.Version})
	})
	r.Any(constants.APIPrefix+"/*path", s.handleAPI)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Unknown endpoint"})
	})
	return r
}

func (s *Server) handleAPI(c *gin.Context) {
	owner := c.GetHeader(constants.OwnerHeader)
	if owner == "" {
		owner = s.cfg.DefaultOwner
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		writeError(c, errs.InvalidField("body", "could not be read"))
		return
	}

	out, err := s.dispatcher.Do(c.Request.Context(), owner, c.Request.Method, c.Request.URL.RequestURI(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrUnknownEndpoint):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Message: err.Error()}

	var invalid *errs.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		resp.Fields = invalid.Fields
	case errors.Is(err, errs.ErrUnknownEndpoint):
		resp.Message = "Unknown endpoint"
	case status == http.StatusInternalServerError:
		logger.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		resp.Message = "Internal server error"
	}
	c.JSON(status, resp)
}

func recoverToJSON(c *gin.Context, recovered any) {
	logger.Error("Handler panicked", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
}

func requestLogger() gin.HandlerFunc {
	log := logger.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully. ready, if non-nil, receives the bound address.
func (s *Server) Serve(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("Server listening", "addr", addr)
	if ready != nil {
		ready(addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
