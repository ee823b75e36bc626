// Package server wires the storage, service, and HTTP layers into a
// runnable process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caldermtz/tidechest/internal/platform/timeouts"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/service"
	"github.com/caldermtz/tidechest/internal/treasure/storage/sqlite"
)

// Server hosts the tidechest HTTP API.
type Server struct {
	cfg    Config
	store  *sqlite.Store
	engine *gin.Engine
}

// New opens the store, seeds the admin and hub configuration if absent,
// and builds the HTTP router.
func New(ctx context.Context, cfg Config) (*Server, error) {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := service.NewRoomService(store)
	admin := domain.Identity("")
	if cfg.AdminIdentity != "" {
		admin, err = domain.ParseIdentity(cfg.AdminIdentity)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("parse admin identity: %w", err)
		}
	}
	if err := svc.Seed(ctx, admin, cfg.HubURL); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed config: %w", err)
	}

	return &Server{
		cfg:    cfg,
		store:  store,
		engine: newRouter(svc),
	}, nil
}

// newRouter builds the gin engine with every route mounted.
func newRouter(svc *service.RoomService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := &handler{svc: svc}

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := engine.Group("/v1")
	v1.POST("/rooms", h.createRoom)
	v1.GET("/rooms/:id", h.getRoom)
	v1.POST("/rooms/:id/join", h.joinRoom)
	v1.POST("/rooms/:id/start", h.startRoom)
	v1.POST("/rooms/:id/bury", h.buryTreasure)
	v1.POST("/rooms/:id/dig", h.dig)
	v1.POST("/rooms/:id/reveal", h.revealTreasure)
	v1.GET("/admin", h.getAdmin)
	v1.POST("/admin", h.setAdmin)
	v1.GET("/hub", h.getHub)
	v1.POST("/hub", h.setHub)

	return engine
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve runs the HTTP server until the context ends, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("server listening at %s", httpServer.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-serveErr
		return nil
	}
}

// Close releases the server's resources.
func (s *Server) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store.Close()
}
