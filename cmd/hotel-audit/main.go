package main // Entry point package for the reservation event auditor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/iliyamo/hotel-floor-reservation/internal/config"
	"github.com/iliyamo/hotel-floor-reservation/internal/queue"
)

// hotel-audit appends every reservation.changed event published by
// hotel-server to a log file until it is interrupted.
func main() {
	logPath := flag.String("log", "", "append events to this file (overrides HOTEL_EVENT_LOG)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logPath != "" {
		cfg.EventLogPath = *logPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("auditing reservation events", "queue", queue.ReservationChangedQueue, "log", cfg.EventLogPath)
	if err := queue.StartEventConsumer(ctx, cfg.AMQPURL, cfg.EventLogPath, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumer failed", "error", err)
		os.Exit(1)
	}
}
