package main // Entry point package for the reservation client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/iliyamo/hotel-floor-reservation/internal/config"
	"github.com/iliyamo/hotel-floor-reservation/internal/model"
	"github.com/iliyamo/hotel-floor-reservation/internal/queue"
	"github.com/iliyamo/hotel-floor-reservation/internal/utils"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var err error
	if len(args) > 0 && args[0] == "token" {
		err = runToken(args[1:], stdout, stderr)
	} else {
		err = runRequest(args, stdout, stderr)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, "usage: hotel-client [flags] <reserve|free|show> <floor> [room]")
		fmt.Fprintln(stderr, "       hotel-client token [--subject name]")
		return 1
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}

// runRequest sends one request and prints the reply.
func runRequest(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hotel-client", flag.ContinueOnError)
	fs.SetOutput(stderr)
	transport := fs.String("transport", "", "mailbox backend: redis or amqp (overrides HOTEL_TRANSPORT)")
	timeout := fs.Duration("timeout", 10*time.Second, "how long to wait for the reply")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := parseRequest(fs.Args())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Transport == config.TransportMemory {
		return errors.New("the memory transport cannot reach another process; set HOTEL_TRANSPORT to redis or amqp")
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pair, closePair, err := queue.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening mailboxes: %w", err)
	}
	defer closePair()

	logger.Debug("sending request", "action", req.Action, "floor", req.Floor, "room", req.Room)
	reply, err := queue.NewClient(pair, cfg.MessageLimit).Do(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, reply)
	return nil
}

// parseRequest turns "<action> <floor> [room]" into a request.  The
// room defaults to 0.
func parseRequest(args []string) (model.Request, error) {
	if len(args) < 2 || len(args) > 3 {
		return model.Request{}, fmt.Errorf("%w: expected an action and a floor", errUsage)
	}
	req := model.Request{Action: args[0], Floor: args[1]}
	if len(args) == 3 {
		room, err := strconv.Atoi(args[2])
		if err != nil {
			return model.Request{}, fmt.Errorf("%w: room %q is not a number", errUsage, args[2])
		}
		req.Room = room
	}
	if err := req.Validate(); err != nil {
		return model.Request{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	return req, nil
}

// runToken prints an operator token for the HTTP gateway.
func runToken(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hotel-client token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("subject", "operator", "token subject")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%w: token takes no arguments", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	tok, err := utils.NewOperatorToken(cfg.JWTSecret, *subject, cfg.TokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tok.Token)
	return nil
}
