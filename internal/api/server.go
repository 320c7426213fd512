// Package api exposes comparisons and database maintenance over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/schema"
)

const requestIDHeader = "X-Request-ID"

// Comparer runs comparisons.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (*compare.Report, error)
}

// Admin maintains the benchmark database.
type Admin interface {
	Migrate(ctx context.Context) error
	Seed(ctx context.Context) (schema.Counts, error)
	Ping(ctx context.Context) error
}

// ResultStore persists successful comparison reports.
type ResultStore func(ctx context.Context, report *compare.Report) error

type Server struct {
	comparer    Comparer
	admin       Admin
	metrics     http.Handler
	store       ResultStore
	log         *slog.Logger
	serviceName string
	tracer      trace.TracerProvider
	now         func() time.Time
}

type Option func(*Server)

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithResultStore stores every report that has at least one result.
func WithResultStore(store ResultStore) Option {
	return func(s *Server) { s.store = store }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTracing instruments every route with spans named after serviceName.
func WithTracing(serviceName string, tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.serviceName = serviceName
		s.tracer = tp
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func NewServer(comparer Comparer, admin Admin, opts ...Option) *Server {
	s := &Server{
		comparer: comparer,
		admin:    admin,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), requestID(), s.accessLog())
	if s.serviceName != "" {
		var opts []otelgin.Option
		if s.tracer != nil {
			opts = append(opts, otelgin.WithTracerProvider(s.tracer))
		}
		router.Use(otelgin.Middleware(s.serviceName, opts...))
	}

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	bench := router.Group("/api/benchmark")
	bench.GET("/compare", s.handleCompareGet)
	bench.POST("/compare", s.handleComparePost)
	bench.POST("/migrate", s.handleMigrate)
	bench.POST("/seed", s.handleSeed)

	router.GET("/api/health", s.handleHealth)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}
	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("requestID"),
		)
	}
}
