package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"docsense/internal/app"
	"docsense/internal/config"
	"docsense/internal/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Structured logger with correlation-id propagation
	base := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewContextHandler(base)))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	a, err := app.New(cfg, deps.DB, deps.NSQProducer)
	if err != nil {
		return err
	}

	// Ingestion consumer
	nsqCfg := nsq.NewConfig()
	consumer, err := nsq.NewConsumer(config.TopicIngestTask, config.ChannelIngest, nsqCfg)
	if err != nil {
		return err
	}
	consumer.AddHandler(a.Ingestor)
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		return err
	}
	defer consumer.Stop()

	return a.Run(ctx)
}
