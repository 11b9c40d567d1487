package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer drains the user event queue into an append-only audit log.
type AuditConsumer struct {
	URL     string
	Queue   string
	LogPath string
	Log     *zap.Logger
}

// Run connects to the broker and consumes until ctx is cancelled. Broken
// connections are re-dialled with exponential backoff capped at 30s.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("audit-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("audit-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("audit-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	f, err := openAuditLog(c.LogPath)
	if err != nil {
		return err
	}
	defer f.Close()

	for d := range msgs {
		if err := WriteAuditLine(f, d.Body); err != nil {
			c.Log.Error("audit-consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false) // reject without requeue to avoid hot loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func openAuditLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return f, nil
}

// WriteAuditLine decodes one event body and appends a single
// human-readable line for it to w.
func WriteAuditLine(w io.Writer, body []byte) error {
	var ev UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.UserID == 0 {
		return errors.New("event missing type or user_id")
	}
	line := fmt.Sprintf("[%s] %s | user_id=%d", ev.At.UTC().Format(time.RFC3339), ev.Type, ev.UserID)
	if ev.Email != "" {
		line += fmt.Sprintf(" | email=%q", ev.Email)
	}
	if ev.Role != "" {
		line += " | role=" + ev.Role
	}
	if ev.RestaurantID != 0 {
		line += fmt.Sprintf(" | restaurant_id=%d", ev.RestaurantID)
	}
	if ev.ActorID != 0 {
		line += fmt.Sprintf(" | actor_id=%d", ev.ActorID)
	}
	_, err := io.WriteString(w, line+"\n")
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
