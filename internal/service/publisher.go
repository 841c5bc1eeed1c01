// Package service publishes show events to RabbitMQ.  Publishing is best
// effort: callers log failures and never fail a request because of them.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/config"
	"github.com/iliyamo/indias-got-voice/internal/queue"
)

const (
	dialTimeout    = 3 * time.Second
	publishTimeout = 5 * time.Second
	redialBackoff  = 2 * time.Second
	bufferSize     = 256
)

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher closed")
	// ErrBufferFull is returned when events arrive faster than the broker
	// accepts them.  The event is dropped.
	ErrBufferFull = errors.New("event buffer full")

	errRedialPending = errors.New("broker unavailable; redial pending")
)

// Publisher sends show events.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

// AMQPPublisher queues events in memory and sends them from one goroutine
// that owns the connection and channel.  Publish never waits on the broker.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	events    chan queue.Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// Owned by run.
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewAMQPPublisher starts the sending goroutine.  The broker is dialed on
// the first event.
func NewAMQPPublisher(cfg config.AMQPConfig, log *zap.Logger) *AMQPPublisher {
	p := &AMQPPublisher{
		url:    cfg.URL,
		queue:  cfg.Queue,
		log:    log.Named("event-publisher"),
		events: make(chan queue.Event, bufferSize),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Publish hands ev to the sending goroutine.  It fails only when ctx is
// already done, the publisher is closed or the buffer is full.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return fmt.Errorf("publish %s: %w", ev.Type, ErrBufferFull)
	}
}

func (p *AMQPPublisher) run() {
	defer p.wg.Done()
	defer p.reset()
	for {
		select {
		case ev := <-p.events:
			p.deliver(ev)
		case <-p.done:
			p.flush()
			return
		}
	}
}

// flush delivers what is still buffered at shutdown.
func (p *AMQPPublisher) flush() {
	for {
		select {
		case ev := <-p.events:
			p.deliver(ev)
		default:
			return
		}
	}
}

func (p *AMQPPublisher) deliver(ev queue.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.send(ctx, ev); err != nil {
		p.log.Warn("event dropped",
			zap.String("type", ev.Type),
			zap.String("id", ev.ID),
			zap.Uint64("show_id", ev.ShowID),
			zap.Error(err))
	}
}

// send marshals ev and sends it as a persistent message on the events
// queue.  A channel that breaks mid-publish is reopened once.
func (p *AMQPPublisher) send(ctx context.Context, ev queue.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	for attempt := 0; ; attempt++ {
		ch, err := p.channel()
		if err != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
		err = ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
		if err == nil {
			return nil
		}
		p.reset()
		if attempt > 0 || ctx.Err() != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
		p.log.Debug("publish failed; redialing", zap.Error(err))
	}
}

// channel returns the open channel, dialing and declaring the durable queue
// when needed.  After a failed dial it refuses to redial until the backoff
// passes, so a dead broker costs one dial timeout rather than one per event.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.retryAt) {
		return nil, errRedialPending
	}
	ch, err := p.dial()
	if err != nil {
		p.retryAt = time.Now().Add(redialBackoff)
		return nil, err
	}
	return ch, nil
}

func (p *AMQPPublisher) dial() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close stops accepting events, delivers the buffered ones and releases the
// broker connection.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}

// New returns an AMQPPublisher, or a NopPublisher when events are disabled.
func New(cfg config.AMQPConfig, log *zap.Logger) Publisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	return NewAMQPPublisher(cfg, log)
}
