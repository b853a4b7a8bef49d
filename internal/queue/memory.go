package queue

import (
	"context"
	"sync"
)

// MemoryMailbox is an in-process mailbox backed by a channel with a
// single slot.  It serves the HTTP gateway when server and clients
// share a process, and tests.
type MemoryMailbox struct {
	slot      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryMailbox returns an empty mailbox.
func NewMemoryMailbox() *MemoryMailbox {
	return &MemoryMailbox{
		slot: make(chan []byte, 1),
		done: make(chan struct{}),
	}
}

// NewMemoryPair returns a Pair of fresh in-process mailboxes.
func NewMemoryPair() Pair {
	return Pair{Server: NewMemoryMailbox(), Client: NewMemoryMailbox()}
}

func (m *MemoryMailbox) Send(ctx context.Context, payload []byte) error {
	msg := make([]byte, len(payload))
	copy(msg, payload)
	select {
	case <-m.done:
		return ErrMailboxClosed
	default:
	}
	select {
	case m.slot <- msg:
		return nil
	case <-m.done:
		return ErrMailboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryMailbox) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-m.slot:
		return msg, nil
	case <-m.done:
		return nil, ErrMailboxClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MemoryMailbox) Purge(context.Context) error {
	select {
	case <-m.slot:
	default:
	}
	return nil
}

func (m *MemoryMailbox) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
