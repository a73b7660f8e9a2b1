package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealflow/server/config"
	"dealflow/server/internal/api"
	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/classifier"
	"dealflow/server/internal/database"
	"dealflow/server/internal/geocoding"
	"dealflow/server/internal/inbox"
	"dealflow/server/internal/models"
	"dealflow/server/internal/processor"
	"dealflow/server/internal/queue"
	"dealflow/server/internal/report"
	"dealflow/server/internal/scheduler"
	"dealflow/server/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

const queueSize = 100

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	var table *assumptions.Table
	if cfg.Assumptions.Path != "" {
		table, err = assumptions.Load(cfg.Assumptions.Path)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load assumptions")
		}
		logger.WithField("deal_types", table.DealTypes()).Info("Loaded assumptions")
	} else {
		logger.Info("No assumptions file configured, using built-in rates")
	}

	telegramService := telegram.NewService(logger)
	loadTelegramConfig(db, cfg, telegramService, logger)

	if cfg.Anthropic.APIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY is not set, classification requests will fail")
	}
	dealClassifier := classifier.New(cfg.Anthropic.APIKey, classifier.Options{
		Model:            cfg.Anthropic.Model,
		MaxTokens:        cfg.Anthropic.MaxTokens,
		FallbackDealType: cfg.Anthropic.FallbackDealType,
	}, logger)

	emailQueue := queue.NewEmailQueue(queueSize, logger)

	batchProcessor := processor.NewBatchProcessor(db, emailQueue, dealClassifier, table, cfg, logger)
	batchProcessor.SetNotifier(telegramService)
	batchProcessor.SetReportWriter(report.Write)
	if cfg.Geocoding.Enabled {
		geocoder := geocoding.NewGeocoder(logger, cfg.Geocoding.CacheDir)
		home := orb.Point{cfg.Geocoding.HomeLongitude, cfg.Geocoding.HomeLatitude}
		batchProcessor.SetTravelPlanner(geocoding.NewPlanner(geocoder, home))
	}

	var inboxScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		inboxScheduler = scheduler.NewScheduler(
			inbox.NewReader(cfg.Scheduler.InboxDir, logger),
			emailQueue,
			scheduler.Options{
				InboxSpec:  cfg.Scheduler.Spec,
				DigestSpec: cfg.Scheduler.DigestSpec,
				BatchSize:  cfg.BatchProcessing.MaxBatchSize,
			},
			logger,
		)
		inboxScheduler.SetDigest(db, telegramService)
		// Inbox files are only moved once their deal is stored or skipped
		batchProcessor.SetCompletionHandler(inboxScheduler.Complete)
	}

	batchProcessor.Start()
	emailQueue.Start()

	if inboxScheduler != nil {
		if err := inboxScheduler.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start scheduler")
		}
		logger.WithField("inbox", cfg.Scheduler.InboxDir).Info("Inbox scheduler started")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	handler := api.NewHandler(db, emailQueue, table, cfg, telegramService, logger)
	api.SetupRoutes(router, handler, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	if inboxScheduler != nil {
		inboxScheduler.Stop()
	}
	emailQueue.Close()
	batchProcessor.Stop()
}

// loadTelegramConfig prefers settings saved through the API over the
// environment.
func loadTelegramConfig(db *database.Database, cfg *config.Config, service *telegram.Service, logger *logrus.Logger) {
	saved, err := db.GetTelegramConfig()
	if err != nil {
		logger.WithError(err).Error("Failed to load Telegram config")
	}
	if saved != nil {
		service.UpdateConfig(saved)
		return
	}
	if cfg.Telegram.BotToken != "" {
		service.UpdateConfig(&models.TelegramConfig{
			IsEnabled: cfg.Telegram.Enabled,
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
		})
	}
}
