// Command booking-audit consumes booking events from RabbitMQ and appends
// one line per event to the audit log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

func main() {
	cfg, err := config.LoadAudit()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	build := zap.NewDevelopment
	if cfg.IsProd() {
		build = zap.NewProduction
	}
	log, err := build()
	if err != nil {
		log = zap.NewExample()
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.RabbitURL, cfg.LogPath, log)
	log.Info("booking audit consumer started", zap.String("queue", queue.BookingEventsQueue), zap.String("path", cfg.LogPath))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("booking audit consumer stopped", zap.Error(err))
		os.Exit(1)
	}
	log.Info("booking audit consumer stopped")
}
