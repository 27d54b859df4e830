package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bidvault/config"
	"bidvault/internal/mqhandler"
	"bidvault/internal/repository"
	"bidvault/pkg/db"
	"bidvault/pkg/logger"
	"bidvault/pkg/mq"
	appredis "bidvault/pkg/redis"
	"bidvault/pkg/util"
)

const dedupTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Sync()

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	rdb := appredis.NewClient(cfg.Redis)
	defer rdb.Close()

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "event_log", "#", log)
	if err != nil {
		log.Fatal("Failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	deduper := util.NewDeduper(rdb, dedupTTL, log)
	eventLog := repository.NewEventLogRepo(pool)
	auditHandler := mqhandler.NewEventLogHandler(eventLog, deduper, log)
	consumer.SetHandler(auditHandler.Handle)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Consumer failed", zap.Error(err))
		}
	}()

	log.Info("Audit worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Audit worker stopped")
}
