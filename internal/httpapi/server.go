// ABOUTME: HTTP surface forwarding /api/* requests to the call router
// ABOUTME: Built on gin; responses are the router's status and JSON body unchanged
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thumbcoded/kemmei-app-sub000/internal/logging"
	"github.com/thumbcoded/kemmei-app-sub000/internal/router"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 4 << 20

const shutdownTimeout = 5 * time.Second

// NewHandler builds the gin engine: ANY /api/*path and GET /healthz
func NewHandler(rt *router.Router, logger logging.Logger) *gin.Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("component", "http")

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Any("/api/*path", func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, router.ErrorBody{Error: err.Error()})
			return
		}

		// The escaped path keeps %2F inside IDs intact for the router to split on
		path := c.Request.URL.EscapedPath()
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}

		req := router.Request{Path: path, Method: c.Request.Method}
		if len(body) > 0 {
			req.Body = body
		}
		resp := rt.Handle(c.Request.Context(), req)
		c.JSON(resp.Status, resp.Body)
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, router.NotFound)
	})

	return r
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, addr string, handler http.Handler, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	<-errCh
	return nil
}
