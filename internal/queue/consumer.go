package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mailer sends the optional confirmation email for a reservation.
type Mailer interface {
	SendReservationCreated(ev ReservationCreatedEvent) error
}

// Consumer listens on the reservation queue and appends one line per
// event to <LogDir>/booking.log.  When Mailer is set the owner is also
// emailed; mail failures are logged and do not reject the message.
type Consumer struct {
	URL    string
	Queue  string
	LogDir string
	Mailer Mailer
	Logger *log.Logger

	mu sync.Mutex // serializes writes to booking.log
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Queue == "" {
		c.Queue = ReservationCreatedQueue
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Printf("failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Printf("consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Printf("set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.Logger.Printf("handle message %s failed: %v", d.MessageId, err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event, appends it to booking.log and sends
// the confirmation mail when configured.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev ReservationCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReservationID == 0 {
		return errors.New("event without reservation_id")
	}
	if err := c.appendLog(ev); err != nil {
		return err
	}
	if c.Mailer != nil && ev.UserEmail != "" {
		if err := c.Mailer.SendReservationCreated(ev); err != nil {
			c.Logger.Printf("mail reservation %d: %v", ev.ReservationID, err)
		}
	}
	return nil
}

func (c *Consumer) appendLog(ev ReservationCreatedEvent) error {
	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(ev.LogLine()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
