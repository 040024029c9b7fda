package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"study-ai/internal/api"
	"study-ai/internal/config"
	"study-ai/internal/db"
	"study-ai/internal/logger"
	"study-ai/internal/services"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if strings.HasPrefix(strings.ToLower(cfg.AppMode), "prod") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := newModel(ctx, cfg, log)
	if err != nil {
		return err
	}
	pdfService := services.NewPDFService(nil)

	tokens, closeTokens, err := newTokenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTokens()

	deps := api.Deps{
		Log:         log,
		Extractor:   pdfService,
		Study:       services.NewStudyService(model, log),
		Classroom:   services.NewClassroomService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, tokens, log),
		Scheduler:   services.NewReviewScheduler(),
		CORSOrigins: cfg.CORSOrigins,
	}

	switch cfg.StorageBackend {
	case config.StorageGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		defer client.Close()
		deps.Documents = services.NewGCSDocumentStore(client, cfg.GCSBucket, pdfService)
		log.Info("document storage ready", "backend", cfg.StorageBackend, "bucket", cfg.GCSBucket)
	default:
		conn, err := db.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()
		store := services.NewLocalDocumentStore(conn, cfg.UploadDir, cfg.PublicBaseURL, pdfService)
		deps.Documents = store
		deps.Registry = store
		deps.UploadDir = cfg.UploadDir
		log.Info("document storage ready", "backend", cfg.StorageBackend, "dir", cfg.UploadDir)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(deps).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newTokenStore(ctx context.Context, cfg config.Config, log *logger.Logger) (services.TokenStore, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("oauth sessions kept in memory")
		return services.NewMemoryTokenStore(), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("oauth sessions kept in redis", "addr", cfg.RedisAddr, "ttl", cfg.OAuthSessionTTL)
	return services.NewRedisTokenStore(rdb, cfg.OAuthSessionTTL), func() { _ = rdb.Close() }, nil
}
