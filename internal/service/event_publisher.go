// Package service publishes reservation events to RabbitMQ.  Events
// are a side channel: they are queued in memory and published by a
// background worker, so a slow or absent broker never delays a reply.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hotel-floor-reservation/internal/queue"
)

// ErrEventDropped is returned when the event buffer is full.
var ErrEventDropped = errors.New("event buffer full; event dropped")

// Defaults for EventPublisher.
const (
	DefaultEventBuffer = 256
	DefaultDialTimeout = 5 * time.Second
	DefaultRetryDelay  = 10 * time.Second
)

// EventPublisher buffers events and publishes them from one worker
// goroutine, which owns the broker connection.  After a failed dial it
// drops events until RetryDelay has passed instead of dialing for each
// one.
type EventPublisher struct {
	url    string
	logger *slog.Logger
	events chan queue.ReservationChangedEvent

	// DialTimeout bounds the TCP connect and AMQP handshake.
	DialTimeout time.Duration
	// RetryDelay is how long to wait after a failed dial.
	RetryDelay time.Duration

	startOnce sync.Once
	stop      context.CancelFunc
	done      chan struct{}

	// Owned by the worker.
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewEventPublisher returns a publisher for the broker at url with room
// for buffer pending events (zero means DefaultEventBuffer).  Nothing
// is published until Start is called.
func NewEventPublisher(url string, buffer int, logger *slog.Logger) *EventPublisher {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &EventPublisher{
		url:         url,
		logger:      logger,
		events:      make(chan queue.ReservationChangedEvent, buffer),
		DialTimeout: DefaultDialTimeout,
		RetryDelay:  DefaultRetryDelay,
		done:        make(chan struct{}),
	}
}

// Start launches the worker.  It stops when ctx is cancelled or Close
// is called.  Later calls do nothing.
func (p *EventPublisher) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.stop = context.WithCancel(ctx)
		go p.run(ctx)
	})
}

// PublishReservationChanged queues ev without blocking.  When the
// buffer is full the event is dropped and ErrEventDropped returned.
func (p *EventPublisher) PublishReservationChanged(_ context.Context, ev queue.ReservationChangedEvent) error {
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrEventDropped
	}
}

// Close stops the worker, waits for it to finish and releases the
// broker connection.  Events still buffered are discarded.
func (p *EventPublisher) Close() error {
	// A publisher that was never started has no worker to wait for.
	p.startOnce.Do(func() { close(p.done) })
	if p.stop != nil {
		p.stop()
	}
	<-p.done
	return nil
}

func (p *EventPublisher) run(ctx context.Context) {
	defer close(p.done)
	defer p.reset()
	for {
		select {
		case <-ctx.Done():
			if n := len(p.events); n > 0 {
				p.logger.Warn("rabbitmq: discarding unpublished events", "count", n)
			}
			return
		case ev := <-p.events:
			if err := p.publish(ctx, ev); err != nil {
				p.logger.Warn("rabbitmq: event not published",
					"floor", ev.Floor,
					"room", ev.Room,
					"error", err,
				)
			}
		}
	}
}

func (p *EventPublisher) publish(ctx context.Context, ev queue.ReservationChangedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, p.DialTimeout)
	defer cancel()
	err = ch.PublishWithContext(pubCtx,
		"",                            // default exchange
		queue.ReservationChangedQueue, // routing key = queue name
		false,                         // mandatory
		false,                         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialing when needed and allowed.
func (p *EventPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.retryAt) {
		return nil, errors.New("broker unavailable; waiting to redial")
	}

	ch, err := p.dial()
	if err != nil {
		p.retryAt = time.Now().Add(p.RetryDelay)
		return nil, err
	}
	return ch, nil
}

func (p *EventPublisher) dial() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.DialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Durable so events survive broker restarts; idempotent.
	if _, err := ch.QueueDeclare(queue.ReservationChangedQueue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *EventPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
