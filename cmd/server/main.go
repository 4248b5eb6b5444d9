package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/marketpulse/campaignhub/internal/agent"
	"github.com/marketpulse/campaignhub/internal/api"
	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/config"
	"github.com/marketpulse/campaignhub/internal/personalize"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
	"github.com/marketpulse/campaignhub/internal/repository/postgres"
	"github.com/marketpulse/campaignhub/internal/seed"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
	"github.com/marketpulse/campaignhub/internal/service/analytics"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
	"github.com/marketpulse/campaignhub/internal/service/customer"
	"github.com/marketpulse/campaignhub/internal/service/dispatch"
	"github.com/marketpulse/campaignhub/internal/transport/email"
	"github.com/marketpulse/campaignhub/internal/transport/whatsapp"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		logger.Error("load config", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("ping database", "error", err.Error())
		os.Exit(1)
	}

	// Redis: analytics cache and sessions
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, caching degraded", "addr", cfg.Redis.Addr, "error", err.Error())
	}

	// Repositories
	customerRepo := postgres.NewCustomerRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	abtestRepo := postgres.NewABTestRepo(db)
	logRepo := postgres.NewDeliveryLogRepo(db)
	analyticsRepo := postgres.NewAnalyticsRepo(db)

	// Services
	customerSvc := customer.NewService(customerRepo)
	campaignSvc := campaign.NewService(campaignRepo)
	abtestSvc := abtest.NewService(abtestRepo, customerSvc, campaignSvc, cfg.Dispatch.AudienceLimit)
	analyticsSvc := analytics.NewService(analyticsRepo, rdb, cfg.Analytics.CacheTTL(), cfg.Dispatch.CostPerMessage)

	// Transports
	waClient := whatsapp.NewClient(cfg.WhatsApp)
	var emailClient dispatch.EmailTransport
	if mailer, err := email.NewClient(ctx, cfg.Email); err != nil {
		logger.Warn("email transport unavailable", "error", err.Error())
	} else {
		emailClient = mailer
	}
	dispatchSvc := dispatch.NewService(waClient, emailClient, logRepo, customerSvc, cfg.Dispatch.AudienceLimit)

	// Chat assistant
	var chat api.ChatAssistant
	if cfg.Chat.Enabled {
		assistant, err := agent.NewAssistant(ctx, cfg.Chat.Region, cfg.Chat.ModelID, analyticsSvc)
		if err != nil {
			logger.Warn("chat assistant unavailable", "error", err.Error())
		} else {
			chat = assistant
		}
	}
	if chat == nil {
		chat = unavailableChat{}
	}

	// Auth
	sessions := auth.NewSessionStore(rdb, cfg.Auth.SessionTTL())
	authManager := auth.NewManager(&cfg.Auth, cfg.Server.BaseURL, sessions)

	handlers := &api.Handlers{
		Customers:  customerSvc,
		Campaigns:  campaignSvc,
		ABTests:    abtestSvc,
		Dispatcher: dispatchSvc,
		Analytics:  analyticsSvc,
		Chat:       chat,
		Seeder:     seed.New(customerRepo),
		Logs:       logRepo,
		Preview:    personalize.NewPreviewEngine(),
	}

	router := api.SetupRoutes(handlers, authManager, nil)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
}

// unavailableChat answers when no Bedrock client could be constructed.
type unavailableChat struct{}

func (unavailableChat) Ask(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("chat assistant is not configured")
}
