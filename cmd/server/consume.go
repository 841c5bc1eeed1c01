package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/config"
	"github.com/iliyamo/indias-got-voice/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Append show events from RabbitMQ to the event log",
	RunE:  runConsume,
}

func runConsume(*cobra.Command, []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := config.LoadAMQPConfig()
	ctx, stop := signalContext()
	defer stop()

	log.Info("event consumer starting", zap.String("queue", cfg.Queue), zap.String("log_dir", cfg.LogDir))
	if err := queue.NewConsumer(cfg, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("event consumer stopped")
	return nil
}
