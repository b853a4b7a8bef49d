package main // Entry point package for the reservation server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	flag "github.com/spf13/pflag"

	"github.com/iliyamo/hotel-floor-reservation/internal/config"
	"github.com/iliyamo/hotel-floor-reservation/internal/database"
	"github.com/iliyamo/hotel-floor-reservation/internal/handler"
	"github.com/iliyamo/hotel-floor-reservation/internal/middleware"
	"github.com/iliyamo/hotel-floor-reservation/internal/model"
	"github.com/iliyamo/hotel-floor-reservation/internal/queue"
	"github.com/iliyamo/hotel-floor-reservation/internal/report"
	"github.com/iliyamo/hotel-floor-reservation/internal/repository"
	"github.com/iliyamo/hotel-floor-reservation/internal/router"
	"github.com/iliyamo/hotel-floor-reservation/internal/seed"
	"github.com/iliyamo/hotel-floor-reservation/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	seedDSN := flag.String("seed-dsn", "", "load the seed table from this MySQL DSN instead of a file")
	seedDB := flag.Bool("seed-db", false, "load the seed table from the database in DB_* settings")
	transport := flag.String("transport", "", "mailbox backend: memory, redis or amqp (overrides HOTEL_TRANSPORT)")
	httpAddr := flag.String("http", "", "serve the HTTP gateway on this address (overrides HOTEL_HTTP_ADDR)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <reservation-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	src, closeSrc, err := seedSource(cfg, flag.Args(), *seedDSN, *seedDB)
	if err != nil {
		logger.Error(err.Error())
		flag.Usage()
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := repository.NewReservationStore(model.DefaultFloors())
	err = src.Load(ctx, store, logger)
	closeSrc()
	if err != nil {
		logger.Error("loading seed table", "error", err)
		return 1
	}

	pair, closePair, err := queue.Open(ctx, cfg)
	if err != nil {
		logger.Error("opening mailboxes", "transport", cfg.Transport, "error", err)
		return 1
	}
	defer closePair()
	if err := pair.Purge(ctx); err != nil {
		logger.Error("purging mailboxes", "error", err)
		return 1
	}

	var events handler.EventPublisher
	if cfg.EventsOn {
		publisher := service.NewEventPublisher(cfg.AMQPURL, 0, logger)
		publisher.Start(ctx)
		defer publisher.Close()
		events = publisher
	}

	dispatcher := handler.NewDispatcher(store, pair.Server, pair.Client, events, logger)
	dispatcher.SetMessageLimit(cfg.MessageLimit)

	if cfg.Transport == config.TransportMemory && cfg.HTTPAddr == "" {
		logger.Warn("memory transport without the HTTP gateway accepts no clients")
	}
	if cfg.HTTPAddr != "" {
		rl, err := config.LoadRateLimitConfig()
		if err != nil {
			logger.Error("loading rate limit settings", "error", err)
			return 1
		}
		e := newGateway(ctx, cfg, rl, pair, logger)
		go func() {
			logger.Info("gateway listening", "addr", cfg.HTTPAddr)
			if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("gateway stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("serving reservations",
		"env", cfg.Env,
		"transport", cfg.Transport,
		"server_queue", cfg.ServerQueue,
		"client_queue", cfg.ClientQueue,
	)
	if err := dispatcher.Run(ctx); err != nil {
		logger.Error("dispatcher failed", "error", err)
		return 1
	}

	if err := report.NewReporter(store, os.Stdout).Report(); err != nil {
		logger.Error("writing final table", "error", err)
		return 1
	}

	purgeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pair.Purge(purgeCtx); err != nil {
		logger.Warn("purging mailboxes on exit", "error", err)
	}
	return 0
}

// seedSource picks exactly one seed source from the command line.  The
// returned function releases whatever the source holds open.
func seedSource(cfg config.Config, args []string, dsn string, useDB bool) (seed.Source, func(), error) {
	sources := len(args)
	if dsn != "" {
		sources++
	}
	if useDB {
		sources++
	}
	if sources != 1 {
		return nil, nil, errors.New("exactly one seed source is required")
	}

	if len(args) == 1 {
		return seed.FileSource{Path: args[0]}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var (
		src seed.TableSource
		err error
	)
	if dsn != "" {
		src.DB, err = database.OpenDSN(ctx, dsn)
	} else {
		if !cfg.DB.Configured() {
			return nil, nil, errors.New("--seed-db needs DB_USER, DB_HOST and DB_NAME")
		}
		src.DB, err = database.Open(ctx, cfg.DB)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to seed database: %w", err)
	}
	return src, func() { _ = src.DB.Close() }, nil
}

// newGateway builds the echo server.  It gets its own client over pair;
// the HTTP requests are serialized through it.
func newGateway(ctx context.Context, cfg config.Config, rl config.RateLimitConfig, pair queue.Pair, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.RegisterRoutes(e)

	var limit []echo.MiddlewareFunc
	if rl.Enabled {
		rdb, err := config.NewRedisClient(ctx)
		if err != nil {
			logger.Warn("rate limiting disabled; redis unavailable", "error", err)
		} else {
			limit = append(limit, middleware.NewTokenBucket(rl, rdb, logger))
		}
	}

	client := queue.NewClient(pair, cfg.MessageLimit)
	router.RegisterGateway(e, handler.NewGatewayHandler(client, cfg.ReplyTimeout), cfg.JWTSecret, limit...)
	return e
}
