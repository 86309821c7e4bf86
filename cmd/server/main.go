package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"rdm/internal/auth"
	"rdm/internal/blobstore"
	"rdm/internal/config"
	"rdm/internal/handler"
	"rdm/internal/middleware"
	"rdm/internal/repository/postgres"
	"rdm/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
		return err
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		return err
	}
	defer verifier.Close()

	blobs, err := blobstore.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	repoCfg := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.Schema),
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoCfg)
	docRepo := postgres.NewDocumentRepository(repoCfg)
	txManager := postgres.NewTransactionManager(pool, logger)

	clock := service.RealClock{}
	folderService := service.NewFolderService(folderRepo, txManager, clock, logger)
	docService := service.NewDocumentService(docRepo, folderRepo, blobs, txManager, clock, service.UUIDGenerator{}, logger)
	trashService := service.NewTrashService(folderRepo, docRepo, blobs, txManager, logger)

	mux := http.NewServeMux()
	handler.NewHealthHandler(pool).RegisterRoutes(mux)
	handler.NewFolderHandler(folderService, logger).RegisterRoutes(mux)
	handler.NewDocumentHandler(docService, logger).RegisterRoutes(mux)
	handler.NewTrashHandler(trashService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigins},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	var root http.Handler = mux
	root = middleware.AuthMiddleware(verifier)(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.Metrics()(root)
	root = corsMiddleware.Handler(root)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
