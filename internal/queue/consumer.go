package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/config"
)

// LogFileName is the file, under the configured log directory, that the
// consumer appends one line per event to.
const LogFileName = "show-events.log"

// Consumer drains the show events queue into a log file.
type Consumer struct {
	url    string
	queue  string
	logDir string
	log    *zap.Logger
}

func NewConsumer(cfg config.AMQPConfig, log *zap.Logger) *Consumer {
	return &Consumer{url: cfg.URL, queue: cfg.Queue, logDir: cfg.LogDir, log: log.Named("event-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures back off exponentially from 1s to 30s; a dropped connection is
// re-established.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended; reconnecting", zap.Error(err))
		if err := sleep(ctx, 2*time.Second); err != nil {
			return err
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("consuming", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Error("handle message failed", zap.String("message_id", d.MessageId), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ShowID == 0 {
		return errors.New("event without type or show")
	}
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single human-readable log line.
func FormatLine(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | id=%s | show_id=%d | user_id=%d",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID, ev.ShowID, ev.UserID)
	if ev.ParticipantID != 0 {
		fmt.Fprintf(&b, " | participant_id=%d", ev.ParticipantID)
	}
	if ev.TotalVotes != 0 {
		fmt.Fprintf(&b, " | total_votes=%d", ev.TotalVotes)
	}
	if ev.Status != "" {
		fmt.Fprintf(&b, " | status=%s", ev.Status)
	}
	if ev.SeatNumber != 0 {
		fmt.Fprintf(&b, " | seat=%d", ev.SeatNumber)
	}
	if ev.SpeakerID != 0 {
		fmt.Fprintf(&b, " | speaker_id=%d", ev.SpeakerID)
	}
	b.WriteByte('\n')
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
