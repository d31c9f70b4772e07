package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dacadeorg/icp-azle-201/internal/config"
	kafkax "github.com/dacadeorg/icp-azle-201/internal/kafka"
	"github.com/dacadeorg/icp-azle-201/internal/logging"
	"github.com/dacadeorg/icp-azle-201/internal/market"
	"github.com/dacadeorg/icp-azle-201/internal/redisx"
	"github.com/dacadeorg/icp-azle-201/internal/stats"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.ServiceName + "-auditor")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stats.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-auditor",
		Log:         logger,
	}

	group := getenv("AUDITOR_GROUP", "marketplace-auditor")
	workers := mustAtoi(os.Getenv("AUDITOR_WORKERS"), "4")

	for _, topic := range []string{market.TopicOrderCompleted, market.TopicOrderExpired} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		go func(topic string) {
			logger.Info("auditor consumer started", "group", group, "topic", topic, "workers", workers)
			if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
				logger.Error("consumer exit", "topic", topic, "err", err)
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumers")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
