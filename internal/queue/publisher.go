package queue

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of a publish.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends ReservationCreatedEvent messages to RabbitMQ.  It
// satisfies booking.Notifier.  Each publish dials its own connection;
// reservation traffic is low enough that pooling is not needed.
type Publisher struct {
	URL    string
	Queue  string
	Logger *log.Logger
	// DialTimeout caps connection setup.  The context deadline wins when
	// it is sooner.  Zero selects DefaultDialTimeout.
	DialTimeout time.Duration
}

// NewPublisher returns a Publisher for url.  An empty queue name selects
// ReservationCreatedQueue.
func NewPublisher(url, queue string, logger *log.Logger) *Publisher {
	if queue == "" {
		queue = ReservationCreatedQueue
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{URL: url, Queue: queue, Logger: logger, DialTimeout: DefaultDialTimeout}
}

// ReservationCreated publishes the event for r.  Errors are logged and
// returned so the caller can choose to ignore them.  Messages are
// persistent and carry the event id as MessageId.
func (p *Publisher) ReservationCreated(ctx context.Context, owner access.Principal, r model.Reservation) error {
	ev := NewReservationCreatedEvent(owner, r)
	body, err := json.Marshal(ev)
	if err != nil {
		p.Logger.Printf("marshal event failed: %v", err)
		return err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		p.Logger.Printf("dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Printf("channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.Logger.Printf("queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.EventID,
		Type:         "reservation.created",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.Logger.Printf("publish failed: %v", err)
		return err
	}
	return nil
}

// dial opens a connection whose setup cannot outlive the publisher's dial
// timeout or ctx.  The deadline set on the socket covers the AMQP
// handshake; amqp091 clears it once the connection is open.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	cfg := amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	}
	return amqp.DialConfig(p.URL, cfg)
}
