// Package server exposes the title session over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/entrhq/titleforge/pkg/browser"
	"github.com/entrhq/titleforge/pkg/logging"
	"github.com/entrhq/titleforge/pkg/session"
	"github.com/entrhq/titleforge/pkg/synthesis"
)

// DefaultShutdownTimeout bounds how long Run waits for in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// Session is the set of operations the HTTP surface drives.
type Session interface {
	StartSession(ctx context.Context) (string, error)
	Scrape(ctx context.Context) (*browser.ScrapeResult, error)
	SetContext(ctx context.Context, topic string) error
	SetConfig(ctx context.Context, key, modelKey string) error
	Generate(ctx context.Context) (*synthesis.Result, error)
	CloseSession(ctx context.Context) error
	Status() session.Status
}

// Options configures a Server.
type Options struct {
	Addr            string
	AllowedOrigins  []string
	Metrics         *Metrics
	ShutdownTimeout time.Duration
}

// Server routes HTTP requests to a Session.
type Server struct {
	session Session
	metrics *Metrics
	opts    Options
	engine  *gin.Engine
	handler http.Handler
	log     *logging.Logger
}

// New builds the router. gin's mode is left to the caller.
func New(sess Session, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	log, err := logging.NewLogger("server")
	if err != nil {
		log.Warnf("Failed to initialize server logger, using stderr fallback: %v", err)
	}

	s := &Server{
		session: sess,
		metrics: opts.Metrics,
		opts:    opts,
		engine:  gin.New(),
		log:     log,
	}

	s.engine.Use(gin.Recovery(), requestLogger(log))
	if s.metrics != nil {
		s.engine.Use(instrument(s.metrics))
	}
	s.routes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(s.engine)

	return s
}

func (s *Server) routes() {
	s.engine.POST("/startbrowser", s.startBrowser)
	s.engine.GET("/scrape", s.scrape)
	s.engine.POST("/setcontext", s.setContext)
	s.engine.POST("/setconfig", s.setConfig)
	s.engine.POST("/generatetitle", s.generateTitle)
	s.engine.POST("/closebrowser", s.closeBrowser)
	s.engine.GET("/status", s.status)
	s.engine.GET("/health", s.health)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errCh
}
