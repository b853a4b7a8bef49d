package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/iliyamo/hotel-floor-reservation/internal/codec"
	"github.com/iliyamo/hotel-floor-reservation/internal/model"
	"github.com/iliyamo/hotel-floor-reservation/internal/queue"
	"github.com/iliyamo/hotel-floor-reservation/internal/repository"
)

// ErrReplyUndeliverable wraps a failure to put a reply on the outbound
// mailbox.  The client that sent the request cannot be told, so the
// process must not continue.
var ErrReplyUndeliverable = errors.New("reply undeliverable")

// Store is the subset of repository.ReservationStore the dispatcher
// drives.
type Store interface {
	Reserve(floor string, room int) error
	Cancel(floor string, room int) error
	Status(query string) (string, error)
	Count(floor string, room int) (int, error)
}

// EventPublisher receives a notification after every successful
// reserve or free.  It is called on the worker goroutine and must not
// block on the network.
type EventPublisher interface {
	PublishReservationChanged(ctx context.Context, ev queue.ReservationChangedEvent) error
}

// State is the dispatcher's lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// Dispatcher is the single sequential worker: it takes one request off
// the inbound mailbox, applies it to the store and puts exactly one
// reply on the outbound mailbox.
type Dispatcher struct {
	store        Store
	inbox        queue.Mailbox
	outbox       queue.Mailbox
	events       EventPublisher
	logger       *slog.Logger
	messageLimit int
	state        atomic.Int32
}

// NewDispatcher wires a dispatcher.  events may be nil.  Panics when a
// required dependency is missing.
func NewDispatcher(store Store, inbox, outbox queue.Mailbox, events EventPublisher, logger *slog.Logger) *Dispatcher {
	if store == nil || inbox == nil || outbox == nil || logger == nil {
		panic("nil dependency passed to NewDispatcher")
	}
	return &Dispatcher{
		store:  store,
		inbox:  inbox,
		outbox: outbox,
		events: events,
		logger: logger,
	}
}

// SetMessageLimit bounds decoded request size; zero means
// codec.DefaultMessageLimit.
func (d *Dispatcher) SetMessageLimit(limit int) { d.messageLimit = limit }

// State reports whether Run is currently looping.
func (d *Dispatcher) State() State { return State(d.state.Load()) }

// Run serves requests until ctx is cancelled, which is the only way to
// stop it; it then returns nil and any pending request is left
// unanswered.  A receive failure or a reply that cannot be delivered
// is returned as an error.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return errors.New("dispatcher already running")
	}
	defer d.state.Store(int32(StateStopped))

	d.logger.Info("dispatcher running")
	for {
		payload, err := d.inbox.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("dispatcher stopped")
				return nil
			}
			return fmt.Errorf("receiving request: %w", err)
		}

		data, err := codec.EncodeReply(d.Handle(ctx, payload), d.messageLimit)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReplyUndeliverable, err)
		}
		if err := d.outbox.Send(ctx, data); err != nil {
			if ctx.Err() != nil {
				d.logger.Info("dispatcher stopped with reply pending")
				return nil
			}
			return fmt.Errorf("%w: %v", ErrReplyUndeliverable, err)
		}
	}
}

// Handle decodes one payload and returns its reply, carrying the
// request's id.  It never fails: an undecodable payload is answered
// with "error" and id 0.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) model.Reply {
	req, err := codec.DecodeRequest(payload, d.messageLimit)
	if err != nil {
		d.logger.Warn("rejecting undecodable request", "error", err)
		return model.Reply{Text: model.ReplyError}
	}
	text, err := d.Execute(ctx, req)
	if err != nil {
		d.logger.Debug("request failed",
			"action", req.Action,
			"floor", req.Floor,
			"room", req.Room,
			"error", err,
		)
	}
	return model.Reply{ID: req.ID, Text: text}
}

// Execute applies a request to the store.  The returned reply is what
// goes on the wire; the error carries the reason behind an "error"
// reply.
func (d *Dispatcher) Execute(ctx context.Context, req model.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return model.ReplyError, err
	}

	cmd := ParseCommand(req)
	switch cmd.Kind {
	case CommandReserve:
		if err := d.store.Reserve(cmd.Floor, cmd.Room); err != nil {
			return model.ReplyError, err
		}
		d.publish(ctx, req.Action, cmd)
		return model.ReplySuccess, nil
	case CommandCancel:
		if err := d.store.Cancel(cmd.Floor, cmd.Room); err != nil {
			return model.ReplyError, err
		}
		d.publish(ctx, req.Action, cmd)
		return model.ReplySuccess, nil
	case CommandStatus:
		line, err := d.store.Status(cmd.Floor)
		if err != nil {
			return model.ReplyError, err
		}
		return line, nil
	default:
		return model.ReplyError, fmt.Errorf("%w: %q", repository.ErrUnrecognizedCommand, req.Action)
	}
}

func (d *Dispatcher) publish(ctx context.Context, action string, cmd Command) {
	if d.events == nil {
		return
	}
	count, err := d.store.Count(cmd.Floor, cmd.Room)
	if err != nil {
		return
	}
	ev := queue.ReservationChangedEvent{
		Action:    action,
		Floor:     cmd.Floor,
		Room:      cmd.Room,
		Count:     count,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.events.PublishReservationChanged(ctx, ev); err != nil {
		d.logger.Warn("reservation event not published", "floor", cmd.Floor, "room", cmd.Room, "error", err)
	}
}
