package queue

import (
	"context"
	"fmt"

	"github.com/iliyamo/hotel-floor-reservation/internal/config"
)

// Open builds the mailbox pair named by cfg.Transport.  The returned
// function closes the pair and any connection opened for it.
//
// A memory pair only connects goroutines of one process; it serves the
// HTTP gateway and tests.
func Open(ctx context.Context, cfg config.Config) (Pair, func() error, error) {
	switch cfg.Transport {
	case config.TransportMemory:
		pair := NewMemoryPair()
		return pair, pair.Close, nil
	case config.TransportRedis:
		rdb, err := config.NewRedisClient(ctx)
		if err != nil {
			return Pair{}, nil, err
		}
		pair := NewRedisPair(rdb, cfg.ServerQueue, cfg.ClientQueue, cfg.MessageLimit)
		return pair, func() error {
			pair.Close()
			return rdb.Close()
		}, nil
	case config.TransportAMQP:
		pair, err := DialAMQPPair(cfg.AMQPURL, cfg.ServerQueue, cfg.ClientQueue, cfg.MessageLimit)
		if err != nil {
			return Pair{}, nil, err
		}
		return pair, pair.Close, nil
	default:
		return Pair{}, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
