package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bidvault/config"
	"bidvault/db/migrations"
	"bidvault/internal/engine"
	"bidvault/internal/handler"
	"bidvault/internal/httpserver"
	"bidvault/internal/repository"
	"bidvault/internal/service/auth"
	"bidvault/internal/service/query"
	"bidvault/pkg/db"
	"bidvault/pkg/logger"
	"bidvault/pkg/mq"
	"bidvault/pkg/outbox"
	appredis "bidvault/pkg/redis"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Sync()

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Up(pool); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	rdb := appredis.NewClient(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(pool)
	store := repository.NewStore(pool, outboxRepo)

	registry := engine.NewProjectRegistry(store, log)
	ledger := engine.NewBidLedger(store, log)
	vault := engine.NewEscrowVault(store, cfg.Engine, log)
	arb := engine.NewDisputeArbitration(store, cfg.Engine, log)

	querySvc := query.NewService(store, rdb, log)
	authSvc := auth.NewService(store, cfg.JWT.Secret, log)

	h := handler.New(registry, ledger, vault, arb, querySvc, authSvc, log)

	ready := func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		if !publisher.IsConnected() {
			return errors.New("message broker disconnected")
		}
		return nil
	}
	router := httpserver.NewRouter(h, cfg.JWT.Secret, log, ready)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
