package main

import (
	"context"
	"draftdesk/config"
	"draftdesk/db"
	"draftdesk/entitlements"
	"draftdesk/handlers"
	"draftdesk/logger"
	"draftdesk/metrics"
	"draftdesk/middleware"
	"draftdesk/services"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	log := logger.New(logger.Options{
		ServiceName: "draftdesk",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.InitDB(cfg.DB); err != nil {
		log.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer db.GetDB().Close()
	if err := db.Migrate(ctx); err != nil {
		log.Error(ctx, "failed to apply schema", err)
		os.Exit(1)
	}
	log.Info(ctx, "database schema verified")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.SetDefault(metrics.New(registry))

	services.SetDrafter(services.NewDrafter(cfg.AI))

	log.Info(logger.Default().WithFields(ctx, map[string]any{
		"auth":      cfg.Features.AuthEnabled,
		"billing":   cfg.Features.BillingEnabled,
		"reminders": cfg.Features.RemindersEnabled,
	}), "features")

	if cfg.Features.RemindersEnabled {
		go runReminders(ctx, cfg)
	}

	if cfg.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	registerRoutes(r, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info(ctx, "server starting on port "+cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server stopped", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", err)
	}
	log.Info(shutdownCtx, "server stopped")
}

func registerRoutes(r *gin.Engine, metricsHandler http.Handler) {
	r.GET("/healthz", handlers.Healthz)
	r.GET("/metrics", gin.WrapH(metricsHandler))

	auth := r.Group("/auth")
	{
		auth.POST("/signup", handlers.Signup)
		auth.POST("/login", handlers.Login)
	}

	r.POST("/webhooks/billing", handlers.BillingWebhook)

	r.GET("/api/plans", handlers.ListPlans)

	api := r.Group("/api", middleware.AuthRequired())
	{
		api.GET("/me", handlers.Me)

		api.POST("/billing/upgrade", handlers.UpgradePlan)
		api.POST("/billing/downgrade", handlers.DowngradePlan)

		api.GET("/entitlements", handlers.ListEntitlements)
		api.GET("/entitlements/:feature", handlers.GetEntitlement)

		api.POST("/drafts", middleware.RequireFeature(entitlements.FeatureAIResponses), handlers.CreateDraft)
		api.GET("/drafts", handlers.ListDrafts)
		api.GET("/drafts/:id", handlers.GetDraft)
		api.DELETE("/drafts/:id", handlers.DeleteDraft)

		api.GET("/stats/overview", middleware.RequireFeature(entitlements.FeatureAnalyticsDashboard), handlers.GetStatsOverview)
	}
}

// runReminders sweeps trial reminders on a ticker until ctx is cancelled.
func runReminders(ctx context.Context, cfg *config.Config) {
	opts := services.ReminderOptions{
		Mailer:     services.NewMailer(cfg.Sendgrid),
		SlackURL:   cfg.Slack.WebhookURL,
		DaysBefore: cfg.Reminders.DaysBefore,
		UpgradeURL: strings.TrimRight(cfg.App.BaseURL, "/") + "/billing",
	}
	if opts.Mailer == nil {
		logger.Default().Warn(ctx, "sendgrid not configured, trial reminders are recorded but not emailed")
	}

	ticker := time.NewTicker(cfg.Reminders.Interval)
	defer ticker.Stop()
	for {
		sweepReminders(ctx, opts)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepReminders(ctx context.Context, opts services.ReminderOptions) {
	defer func() {
		if r := recover(); r != nil {
			logger.Default().Error(ctx, fmt.Sprintf("trial reminder sweep panic: %v", r), nil)
		}
	}()
	sent, err := services.CheckTrialReminders(ctx, opts)
	if err != nil {
		logger.Default().Error(ctx, "trial reminder sweep failed", err)
		return
	}
	if sent > 0 {
		logger.Default().Info(logger.Default().WithField(ctx, "sent", sent), "trial reminders sent")
	}
}
