package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hotel-floor-reservation/internal/codec"
)

// AMQPMailbox is a mailbox backed by a RabbitMQ queue declared with
// x-max-length 1 and reject-publish overflow, so the broker refuses a
// second pending message.  Publishes use confirms; a nack means the
// queue is full and the send is retried.
//
// Receive polls with basic.get and auto-ack instead of holding a
// consumer.  A consumer's prefetched message leaves the queue before the
// receiver asks for it, which would let a second message in; with get,
// a message leaves the queue only when Receive takes it.
type AMQPMailbox struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	get   getter
	queue string
	limit int

	// PollInterval is how long Send waits before retrying a full queue
	// and how long Receive waits before polling an empty one again.
	PollInterval time.Duration
}

// getter is the part of *amqp.Channel that Receive uses.
type getter interface {
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
}

// DialAMQPMailbox connects to the broker at url and declares queue.
func DialAMQPMailbox(url, queue string, limit int) (*AMQPMailbox, error) {
	if limit <= 0 {
		limit = codec.DefaultMessageLimit
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp mailbox %s: dial: %w", queue, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp mailbox %s: channel open: %w", queue, err)
	}
	// Not durable: the table is not persistent, and neither are requests.
	if _, err := ch.QueueDeclare(queue, false, false, false, false, amqp.Table{
		"x-max-length": int32(1),
		"x-overflow":   "reject-publish",
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp mailbox %s: queue declare: %w", queue, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp mailbox %s: confirm mode: %w", queue, err)
	}
	return &AMQPMailbox{
		conn:         conn,
		ch:           ch,
		get:          ch,
		queue:        queue,
		limit:        limit,
		PollInterval: 20 * time.Millisecond,
	}, nil
}

// DialAMQPPair dials one connection per direction.
func DialAMQPPair(url, serverQueue, clientQueue string, limit int) (Pair, error) {
	server, err := DialAMQPMailbox(url, serverQueue, limit)
	if err != nil {
		return Pair{}, err
	}
	client, err := DialAMQPMailbox(url, clientQueue, limit)
	if err != nil {
		_ = server.Close()
		return Pair{}, err
	}
	return Pair{Server: server, Client: client}, nil
}

func (m *AMQPMailbox) Send(ctx context.Context, payload []byte) error {
	if len(payload) > m.limit {
		return fmt.Errorf("%w: %d bytes, limit %d", codec.ErrMessageTooLarge, len(payload), m.limit)
	}
	for {
		confirm, err := m.ch.PublishWithDeferredConfirmWithContext(ctx,
			"",      // default exchange
			m.queue, // routing key = queue name
			false,   // mandatory
			false,   // immediate
			amqp.Publishing{
				ContentType: "application/cbor",
				Timestamp:   time.Now().UTC(),
				Body:        payload,
			},
		)
		if err != nil {
			return fmt.Errorf("amqp mailbox %s: publish: %w", m.queue, err)
		}
		acked, err := confirm.WaitContext(ctx)
		if err != nil {
			return err
		}
		if acked {
			return nil
		}
		timer := time.NewTimer(m.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *AMQPMailbox) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, ok, err := m.get.Get(m.queue, true)
		if err != nil {
			if errors.Is(err, amqp.ErrClosed) {
				return nil, ErrMailboxClosed
			}
			return nil, fmt.Errorf("amqp mailbox %s: get: %w", m.queue, err)
		}
		if ok {
			return d.Body, nil
		}
		timer := time.NewTimer(m.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *AMQPMailbox) Purge(context.Context) error {
	_, err := m.ch.QueuePurge(m.queue, false)
	return err
}

func (m *AMQPMailbox) Close() error {
	err := m.ch.Close()
	if errors.Is(err, amqp.ErrClosed) {
		err = nil
	}
	return errors.Join(err, m.conn.Close())
}
