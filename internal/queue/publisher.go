package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher delivers user events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev UserEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, UserEvent) error { return nil }

var (
	// ErrBufferFull is returned when the outgoing event buffer is full and
	// the event was dropped.
	ErrBufferFull = errors.New("queue: event buffer full")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("queue: publisher closed")
)

const (
	defaultPublishBuffer = 256
	defaultDialTimeout   = 5 * time.Second
)

// AMQPPublisher publishes events as persistent JSON messages to a durable
// queue through the default exchange. Publish only enqueues into a bounded
// buffer; a single background goroutine owns the broker connection, dials
// it lazily with a bounded timeout and re-dials once when a publish fails
// on a broken channel.
type AMQPPublisher struct {
	url         string
	queue       string
	log         *zap.Logger
	dialTimeout time.Duration

	events chan UserEvent
	done   chan struct{}

	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool

	// owned by run
	conn *amqp.Connection
	ch   *amqp.Channel
}

// PublisherOption customises an AMQPPublisher.
type PublisherOption func(*AMQPPublisher)

// WithBuffer sets how many events may wait for the broker before new ones
// are dropped.
func WithBuffer(n int) PublisherOption {
	return func(p *AMQPPublisher) {
		if n > 0 {
			p.events = make(chan UserEvent, n)
		}
	}
}

// WithDialTimeout bounds the TCP connect and AMQP handshake, and each
// publish confirmation wait.
func WithDialTimeout(d time.Duration) PublisherOption {
	return func(p *AMQPPublisher) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// NewAMQPPublisher starts the delivery goroutine. Call Close to stop it.
func NewAMQPPublisher(url, queue string, log *zap.Logger, opts ...PublisherOption) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &AMQPPublisher{
		url:         url,
		queue:       queue,
		log:         log,
		dialTimeout: defaultDialTimeout,
		events:      make(chan UserEvent, defaultPublishBuffer),
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	go p.run()
	return p
}

// Publish enqueues ev without waiting for the broker. It returns
// ErrBufferFull when the buffer is full.
func (p *AMQPPublisher) Publish(_ context.Context, ev UserEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	defer p.reset()
	for ev := range p.events {
		p.send(ev)
	}
}

func (p *AMQPPublisher) send(ev UserEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("rabbitmq: encode event failed", zap.String("event", string(ev.Type)), zap.Error(err))
		return
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         string(ev.Type),
		Body:         body,
	}

	for attempt := 0; attempt < 2; attempt++ {
		// a failed dial is not retried for the same event
		if err = p.ensureChannel(); err != nil {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
		err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
		cancel()
		if err == nil {
			return
		}
		p.reset()
	}
	p.log.Warn("rabbitmq: publish failed, event dropped",
		zap.String("event", string(ev.Type)), zap.Uint64("user_id", ev.UserID), zap.Error(err))
}

func (p *AMQPPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close stops accepting events and waits for buffered ones to be sent. The
// wait is bounded by two dial timeouts per pending event; past that the
// remaining events are abandoned and an error is returned.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pending := len(p.events)
	close(p.events)
	p.mu.Unlock()

	wait := time.Duration(pending+1) * 2 * p.dialTimeout
	select {
	case <-p.done:
		return nil
	case <-time.After(wait):
		return errors.New("queue: publisher closed with undelivered events")
	}
}
