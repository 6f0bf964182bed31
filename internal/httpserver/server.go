package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fdg312/diet-planner/internal/auth"
	"github.com/fdg312/diet-planner/internal/blob"
	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/export"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/storage"
)

// Server is the HTTP server
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	kv             storage.KV
	storeMode      string
	exportMode     string
	planner        *planner.Planner
	authMiddleware *auth.Middleware
	logger         *slog.Logger
}

// New wires storage, catalog, planner and routes into a Server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults, err := loadDefaults(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		logger: logger,
	}

	s.kv, s.storeMode = initStorage(ctx, cfg, logger)

	s.planner = planner.Load(ctx, planner.Options{
		KV:         s.kv,
		ProfileKey: cfg.ProfileStorageKey,
		PlanKey:    cfg.PlanStorageKey,
		Defaults:   defaults,
		Logger:     logger.With("component", "planner"),
	})

	blobStore, exportMode, err := blob.NewBlobStore(ctx, cfg.Export, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init export store: %w", err)
	}
	s.exportMode = exportMode

	s.routes(blobStore)
	return s, nil
}

// loadDefaults returns the built-in catalog, overlaid with CATALOG_SEED_PATH when set.
func loadDefaults(cfg *config.Config, logger *slog.Logger) (catalog.Defaults, error) {
	if cfg.CatalogSeedPath == "" {
		return catalog.Builtin(), nil
	}
	d, err := catalog.LoadSeed(cfg.CatalogSeedPath)
	if err != nil {
		return catalog.Defaults{}, fmt.Errorf("load catalog seed %s: %w", cfg.CatalogSeedPath, err)
	}
	logger.Info("catalog seed loaded", "path", cfg.CatalogSeedPath, "version", d.Version, "foods", len(d.Foods))
	return d, nil
}

// routes registers the routes
func (s *Server) routes(blobStore blob.Store) {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	if s.config.AuthEnabled() {
		authService := auth.NewService(s.config)
		auth.NewHandlers(authService).Register(s.mux)
		s.authMiddleware = auth.NewMiddleware(authService, s.logger)
	}

	planner.NewHandler(s.planner, s.logger).Register(s.mux)

	exportService := export.NewService(s.planner, blobStore, export.Options{
		PresignTTLSeconds: s.config.Export.S3.PresignTTLSeconds,
		PublicBaseURL:     s.config.Export.S3.PublicBaseURL,
		PreferPublicURL:   s.config.Export.S3.PreferPublicURL,
		Logger:            s.logger,
	})
	export.NewHandler(exportService, s.logger).Register(s.mux)
}

// handleHealthz reports server status
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":      "ok",
		"store_mode":  s.storeMode,
		"export_mode": s.exportMode,
	})
}

// Handler builds the middleware chain (outermost first):
// request log → CORS → rate limit → auth → router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.authMiddleware != nil {
		if s.config.AuthRequired {
			handler = s.authMiddleware.RequireAuth(handler)
		} else {
			handler = s.authMiddleware.OptionalAuth(handler)
		}
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	handler = RequestLogMiddleware(s.logger, handler)
	return handler
}

// Start runs the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "url", "http://localhost"+addr, "healthz", "http://localhost"+addr+"/healthz")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close closes storage and releases resources
func (s *Server) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}
