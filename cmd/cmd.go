package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"koi-keeper-backend/internal/config"
	"koi-keeper-backend/internal/handlers"
	"koi-keeper-backend/internal/repository"
	"koi-keeper-backend/internal/services"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run starts the HTTP server and blocks until SIGINT or SIGTERM
func Run(configPath string) {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Open storage
	repo, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer repo.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("Storage opened")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize services
	deviceService := services.NewDeviceService(repo, cfg.JWT.Secret)

	storeOpts := []services.StoreOption{services.WithMetricsRegisterer(registry)}
	var reminders *services.APNSReminders
	if cfg.APNS.Enabled {
		sender, err := services.NewAPNSSender(cfg.APNS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		reminders = services.NewAPNSReminders(sender, deviceService, cfg.APNS.Topic)
		defer reminders.Stop()
		storeOpts = append(storeOpts, services.WithReminderScheduler(reminders))
	} else {
		log.Warn().Msg("APNs disabled, reminders will not be sent")
	}
	store := services.NewStore(repo, storeOpts...)

	var s3Client *s3.Client
	if cfg.AWS.S3Bucket != "" {
		s3Client, err = repository.NewS3Client(ctx, cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
	}
	photoService := services.NewPhotoService(s3Client, cfg.AWS)

	wsHub := services.NewWSHub()
	unsubscribe := store.Subscribe(wsHub.OnChange)
	defer unsubscribe()

	// Reminders run in this process, so restore them from the persisted settings
	if reminders != nil {
		reminders.Schedule(store.NotificationSettings(ctx))
	}

	router := handlers.NewRouter(handlers.Deps{
		Store:   store,
		Devices: deviceService,
		Photos:  photoService,
		Hub:     wsHub,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
