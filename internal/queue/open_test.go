package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/iliyamo/hotel-floor-reservation/internal/config"
)

func TestOpenRedisUsesConfiguredQueues(t *testing.T) {
	server := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_ADDR", server.Addr())

	cfg := config.Config{
		Transport:   config.TransportRedis,
		ServerQueue: "in",
		ClientQueue: "out",
	}
	ctx := context.Background()
	pair, closeFn, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()

	if err := pair.Server.Send(ctx, []byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if items, _ := server.List("in"); len(items) != 1 {
		t.Fatalf("list in = %v, want one entry", items)
	}
}

func TestOpenMemoryAndUnknown(t *testing.T) {
	ctx := context.Background()
	if _, closeFn, err := Open(ctx, config.Config{Transport: config.TransportMemory}); err != nil {
		t.Fatalf("Open(memory): %v", err)
	} else {
		closeFn()
	}
	if _, _, err := Open(ctx, config.Config{Transport: "carrier-pigeon"}); err == nil {
		t.Fatal("Open(unknown) succeeded")
	}
}
