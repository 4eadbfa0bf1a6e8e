package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
)

// Runner executes one ingestion batch.
type Runner interface {
	Run(ctx context.Context, scope domain.Scope) (domain.BatchResult, error)
	Categories() []string
}

// ZoneReader exposes the active placements of a page.
type ZoneReader interface {
	ListZones(ctx context.Context, pageSlug string) ([]domain.Zone, error)
	ActivePlacements(ctx context.Context, zoneID string) ([]domain.Placement, error)
}

// BreakingReader returns the active breaking-news row.
type BreakingReader interface {
	ActiveBreakingNews(ctx context.Context) (domain.BreakingNews, error)
}

// Deps wires the server collaborators.
type Deps struct {
	Runner   Runner
	Zones    ZoneReader
	Breaking BreakingReader
	Logger   *zap.Logger
}

// Server serves the trigger and read endpoints.
type Server struct {
	cfg      config.HTTPConfig
	runner   Runner
	zones    ZoneReader
	breaking BreakingReader
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New builds the server and registers its routes.
func New(cfg config.HTTPConfig, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		runner:   deps.Runner,
		zones:    deps.Zones,
		breaking: deps.Breaking,
		logger:   deps.Logger,
		mux:      http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "http"))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /api/cron/ingest", s.authorized(http.HandlerFunc(s.handleIngest)))
	s.mux.Handle("GET /api/cron/ingest-category", s.authorized(http.HandlerFunc(s.handleIngestCategory)))
	s.mux.HandleFunc("GET /api/zones/{page}", s.handleZones)
	s.mux.HandleFunc("GET /api/breaking", s.handleBreaking)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.requestLogger(s.mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
