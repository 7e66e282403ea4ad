package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inakamono/paddy-advisor/internal/advisor"
	"github.com/inakamono/paddy-advisor/internal/domain"
)

// Advisor is the evaluation surface the API exposes.
type Advisor interface {
	Advise(ctx context.Context, fieldID int64, asOf time.Time) (*advisor.Advice, error)
	EvaluateField(ctx context.Context, fieldID int64, asOf time.Time) ([]domain.Event, error)
	CheckReadiness(ctx context.Context) error
	Today() time.Time
}

// FieldStore is the registry and log surface the API reads and writes.
type FieldStore interface {
	ListFields(ctx context.Context) ([]domain.Field, error)
	GetField(ctx context.Context, id int64) (domain.Field, error)
	CreateField(ctx context.Context, f domain.Field) (int64, error)
	ListNotifications(ctx context.Context, fieldID int64) ([]domain.Event, error)
}

// Server exposes the advisory REST API plus health, readiness, and
// metrics endpoints.
type Server struct {
	addr    string
	service Advisor
	store   FieldStore
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer constructs the server with routes and middleware registered.
func NewServer(addr string, service Advisor, store FieldStore, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{addr: addr, service: service, store: store, logger: logger, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the listener fails.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.GET("/varieties", s.handleVarieties)
	v1.GET("/fields", s.handleListFields)
	v1.POST("/fields", s.handleCreateField)
	v1.GET("/fields/:id", s.handleGetField)
	v1.GET("/fields/:id/advice", s.handleAdvice)
	v1.POST("/fields/:id/evaluate", s.handleEvaluate)
	v1.GET("/fields/:id/notifications", s.handleNotifications)
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleVarieties(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"varieties": domain.Varieties()})
}

func (s *Server) handleListFields(c *gin.Context) {
	fields, err := s.store.ListFields(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}
