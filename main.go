package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/bookmemory/config"
	"github.com/kevinaaaquil/bookmemory/handlers"
	"github.com/kevinaaaquil/bookmemory/logging"
	"github.com/kevinaaaquil/bookmemory/service"
	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/kevinaaaquil/bookmemory/store/mongo"
	"github.com/kevinaaaquil/bookmemory/store/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	cfg.LogSummary(logger)

	ctx := context.Background()
	db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("open store")
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("close store")
		}
	}()

	var covers handlers.CoverStorage
	if cfg.CoversEnabled() {
		s3Service, err := service.NewS3Service(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("s3")
		}
		covers = s3Service
	} else {
		logger.Warn().Msg("AWS_S3_BUCKET not set; cover uploads are disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := handlers.NewRouter(handlers.Deps{
		DB:             db,
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       cfg.Auth.TokenTTL,
		Covers:         covers,
		Metadata:       service.NewMetadataClient(cfg.Metadata.BaseURL, cfg.Metadata.Timeout),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		AuthRateLimit:  cfg.Auth.RateLimit,
		AuthRateWindow: cfg.Auth.RateWindow,
		Logger:         logger,
		Registry:       reg,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "mongo":
		return mongo.NewMongoDB(ctx, cfg.Database.MongoURI, cfg.Database.MongoDB)
	default:
		return sqlite.Open(cfg.Database.SQLitePath)
	}
}
