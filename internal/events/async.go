package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// Async publisher defaults.
const (
	DefaultQueueSize     = 1000
	DefaultFlushInterval = 100 * time.Millisecond
	publishTimeout       = 5 * time.Second
)

// ErrQueueFull is returned when the async queue cannot take more events.
var ErrQueueFull = errors.New("event queue is full")

// AsyncPublisher queues events and publishes them in batches from a
// background goroutine.
type AsyncPublisher struct {
	next          Publisher
	queue         chan domain.Event
	flushInterval time.Duration
	logger        *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAsyncPublisher starts the worker. A queueSize of zero uses
// DefaultQueueSize.
func NewAsyncPublisher(next Publisher, queueSize int, logger *zap.Logger) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &AsyncPublisher{
		next:          next,
		queue:         make(chan domain.Event, queueSize),
		flushInterval: DefaultFlushInterval,
		logger:        logger.Named("events"),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go p.worker()
	return p
}

// Publish enqueues events without blocking.
func (p *AsyncPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		select {
		case <-p.stop:
			return errors.New("event publisher is closed")
		default:
		}
		select {
		case p.queue <- e:
		case <-ctx.Done():
			return ctx.Err()
		default:
			return ErrQueueFull
		}
	}
	return nil
}

func (p *AsyncPublisher) worker() {
	defer close(p.done)
	batch := make([]domain.Event, 0, maxEntriesPerPut)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.next.Publish(ctx, batch...); err != nil {
			p.logger.Warn("failed to publish events", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-p.queue:
			batch = append(batch, e)
			if len(batch) >= maxEntriesPerPut {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.stop:
			for {
				select {
				case e := <-p.queue:
					batch = append(batch, e)
					if len(batch) >= maxEntriesPerPut {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close drains the queue and waits for the worker, or for ctx to end.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
