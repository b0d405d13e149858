package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is full.
var ErrBufferFull = errors.New("audit buffer full")

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Publisher captures audit events. It is append-only; in async mode events
// are buffered and written by a background goroutine so the request path
// never waits on the sink.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time

	buffer chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of n events.
func WithAsyncBuffer(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan Event, n)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit fills in the id and timestamp when missing and hands the event to the
// sink.
func (p *Publisher) Emit(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = p.now()
	}
	if p.buffer == nil {
		return p.sink.Write(ctx, e)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case p.buffer <- e:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and waits until the buffer is drained.
// Emit must not be called after Close.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for e := range p.buffer {
		// Detached from the request: the request may be long gone.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.sink.Write(ctx, e); err != nil {
			p.logger.Error("failed to write audit event",
				"event_id", e.ID.String(),
				"error", err,
			)
		}
		cancel()
	}
}
