package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/config"
	"github.com/vitos/futures_rebalancer/internal/infrastructure/exchange"
	"github.com/vitos/futures_rebalancer/internal/infrastructure/logger"
	"github.com/vitos/futures_rebalancer/internal/infrastructure/notify"
	"github.com/vitos/futures_rebalancer/internal/infrastructure/secrets"
	"github.com/vitos/futures_rebalancer/internal/usecase"
	"github.com/vitos/futures_rebalancer/internal/web"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Infrastructure
	ctx := context.Background()
	secretsProvider, err := secrets.NewManagerProvider(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatal("Failed to init secrets manager", zap.Error(err))
	}
	lighterClient := exchange.NewClient(cfg.Exchange.BaseURL)

	// 4. Init Core Services
	planner := usecase.NewRebalancePlanner(log)
	adjuster := usecase.NewMarginAdjuster(log, 0)
	executor := usecase.NewOrderExecutor(log, 0, 0)
	orchestrator := usecase.NewOrchestrator(secretsProvider, lighterClient, lighterClient, planner, adjuster, executor, log)

	sink := notify.NewLineSink(string(cfg.Alerts.LineBotToken))
	alerts := usecase.NewAlertBroadcaster(sink, cfg.Alerts.Recipients, log)
	service := usecase.NewRebalanceService(orchestrator, alerts, 0, 0, log)

	// 5. Init Web Server
	server := web.NewServer(cfg.Server.Port, service, string(cfg.Auth.SecretKey), log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 6. Wait for Shutdown
	<-stop

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
}
