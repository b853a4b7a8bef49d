// Package queue provides the mailboxes that carry requests from client
// processes to the server and replies back, plus the reservation event
// payloads and their consumer.
//
// A mailbox is a point-to-point channel with room for a single pending
// message: Send blocks while a message is waiting and Receive blocks
// until one arrives.  Two mailboxes form a Pair, one per direction.
package queue

import (
	"context"
	"errors"
)

// Default mailbox names, shared by server and clients.
const (
	DefaultServerQueue = "hotel-server-queue"
	DefaultClientQueue = "hotel-client-queue"
)

// ErrMailboxClosed is returned by Send and Receive once a mailbox has
// been closed.
var ErrMailboxClosed = errors.New("mailbox closed")

// Mailbox carries opaque payloads in one direction.
type Mailbox interface {
	// Send blocks until the payload has been accepted or ctx ends.
	Send(ctx context.Context, payload []byte) error
	// Receive blocks until a payload arrives or ctx ends.
	Receive(ctx context.Context) ([]byte, error)
	// Purge discards any pending payload.
	Purge(ctx context.Context) error
	Close() error
}

// Pair bundles the two directions.  The server receives on Server and
// replies on Client; clients do the reverse.
type Pair struct {
	Server Mailbox
	Client Mailbox
}

// Purge empties both mailboxes.
func (p Pair) Purge(ctx context.Context) error {
	return errors.Join(p.Server.Purge(ctx), p.Client.Purge(ctx))
}

// Close closes both mailboxes.
func (p Pair) Close() error {
	return errors.Join(p.Server.Close(), p.Client.Close())
}
