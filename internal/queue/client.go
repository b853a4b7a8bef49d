package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/iliyamo/hotel-floor-reservation/internal/codec"
	"github.com/iliyamo/hotel-floor-reservation/internal/model"
)

// Client performs request/reply exchanges over a mailbox Pair.  Calls
// are serialized so a process never has more than one request in
// flight.  Every request carries a fresh id and only the reply echoing
// that id is returned; replies to abandoned exchanges are discarded.
type Client struct {
	pair  Pair
	limit int
	mu    sync.Mutex
}

// NewClient returns a client over pair.  limit bounds the encoded
// request size (zero means codec.DefaultMessageLimit).
func NewClient(pair Pair, limit int) *Client {
	return &Client{pair: pair, limit: limit}
}

// Do sends req on the server mailbox and waits for the reply.  The
// reply text is returned verbatim: "success", "error" or a status line.
// Any ID already set on req is replaced.
func (c *Client) Do(ctx context.Context, req model.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	req.ID = newRequestID()
	payload, err := codec.EncodeRequest(req, c.limit)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.pair.Client.Purge(ctx); err != nil {
		return "", fmt.Errorf("clearing reply mailbox: %w", err)
	}
	if err := c.pair.Server.Send(ctx, payload); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	for {
		data, err := c.pair.Client.Receive(ctx)
		if err != nil {
			return "", fmt.Errorf("waiting for reply: %w", err)
		}
		reply, err := codec.DecodeReply(data, c.limit)
		if err != nil || reply.ID != req.ID {
			// Late answer to an abandoned exchange, or noise.
			continue
		}
		return reply.Text, nil
	}
}

// newRequestID returns a random non-zero id.  Ids only have to differ
// between exchanges that can overlap on one reply mailbox.
func newRequestID() uint64 {
	for {
		if id := rand.Uint64(); id != 0 {
			return id
		}
	}
}
