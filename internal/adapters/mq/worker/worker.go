package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/okian/techmatch/internal/adapters/mq/queue"
	"github.com/okian/techmatch/internal/domain/dedupe"
	"github.com/okian/techmatch/pkg/logger"
	"github.com/okian/techmatch/pkg/metrics"
)

// Default dispatcher configuration.
const (
	defaultDispatcherCount = 4
	defaultRetryAttempts   = 3
	defaultRetryDelay      = 100 * time.Millisecond
)

// Event is what dispatchers read off the queue.
type Event = queue.Event

// Source is the receive side of the event queue.
type Source interface {
	Dequeue() <-chan Event
}

// Dispatcher drains events from a Source and delivers each one.
type Dispatcher struct {
	source      Source
	notifier    Notifier
	deduper     dedupe.Deduper
	flights     *flights
	bucketWidth float64
	attempts    int
	delay       time.Duration
	name        string

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once

	logger logger.Logger
}

// NewDispatcher creates a dispatcher with configuration options.
func NewDispatcher(source Source, notifier Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:      source,
		notifier:    notifier,
		flights:     newFlights(),
		bucketWidth: dedupe.DefaultBucketWidth,
		attempts:    defaultRetryAttempts,
		delay:       defaultRetryDelay,
		name:        "dispatcher",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named(d.name)
	return d
}

// Run delivers events until the source closes, ctx ends or Stop is called.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	events := d.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			// Failures are logged inside Deliver and never leave the dispatcher.
			_ = d.Deliver(ctx, ev)
		}
	}
}

// Stop makes Run return after the event in flight.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.shutdown) })
}

// Done is closed when Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Deliver sends one event through the notifier with retries. A repeat of an
// already delivered match is suppressed and reported as success. A repeat
// that arrives while the first copy is still being delivered waits for that
// outcome and takes over if it failed. On final failure the suppression
// record is dropped and ErrDispatch is returned.
func (d *Dispatcher) Deliver(ctx context.Context, ev Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var (
		key string
		own *flight
	)
	if d.deduper != nil {
		key = dedupe.EventKey(ev, d.bucketWidth)
		for own == nil {
			var other *flight
			own, other = d.flights.claim(ctx, d.deduper, key)
			if own != nil {
				break
			}
			if other != nil {
				select {
				case <-other.done:
				case <-ctx.Done():
					return fmt.Errorf("%w: event %s: %w", ErrDispatch, ev.ID, ctx.Err())
				}
				if !other.delivered {
					continue
				}
			}
			metrics.RecordNotificationSuppressed()
			d.logger.Debug(ctx, "repeat notification suppressed",
				logger.String("event_id", ev.ID),
				logger.String("key", key),
			)
			return nil
		}
	}

	_, err := retry.DoWithData(
		func() (struct{}, error) { return struct{}{}, d.notifier.Notify(ctx, ev) },
		d.retryOptions(ctx, ev)...,
	)
	if own != nil {
		d.flights.finish(ctx, d.deduper, key, own, err == nil)
	}
	if err != nil {
		metrics.RecordNotificationFailed()
		metrics.RecordErrorByComponent("dispatcher", "delivery_failed")
		d.logger.Error(ctx, "notification dropped",
			logger.String("event_id", ev.ID),
			logger.String("subject_id", ev.SubjectID),
			logger.String("counterpart_id", ev.CounterpartID),
			logger.Error(err),
		)
		return fmt.Errorf("%w: event %s: %w", ErrDispatch, ev.ID, err)
	}

	metrics.RecordNotificationDelivered()
	return nil
}

// flights tracks suppression keys whose first delivery is still running.
// Claims and releases happen under one lock so a repeat never observes the
// record without also seeing the flight that owns it.
type flights struct {
	mu      sync.Mutex
	pending map[string]*flight
}

type flight struct {
	done      chan struct{}
	delivered bool
}

func newFlights() *flights {
	return &flights{pending: make(map[string]*flight)}
}

// claim records key. When key was already recorded it returns the flight
// still delivering it, or nil if that delivery has completed.
func (f *flights) claim(ctx context.Context, dd dedupe.Deduper, key string) (own, other *flight) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dd.SeenAndRecord(ctx, key) {
		return nil, f.pending[key]
	}
	own = &flight{done: make(chan struct{})}
	f.pending[key] = own
	return own, nil
}

func (f *flights) finish(ctx context.Context, dd dedupe.Deduper, key string, fl *flight, delivered bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !delivered {
		dd.Forget(ctx, key)
	}
	fl.delivered = delivered
	delete(f.pending, key)
	close(fl.done)
}

func (d *Dispatcher) retryOptions(ctx context.Context, ev Event) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(d.attempts)),
		retry.Delay(d.delay),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordNotificationRetry()
			d.logger.Debug(ctx, "retrying notification",
				logger.String("event_id", ev.ID),
				logger.Int("attempt", int(n)+1),
				logger.Error(err),
			)
		}),
	}
	// Jitter must stay positive.
	if jitter := d.delay / 2; jitter > 0 {
		opts = append(opts, retry.MaxJitter(jitter))
	}
	return opts
}

// Pool runs several dispatchers over one queue.
type Pool struct {
	dispatchers []*Dispatcher
	queue       Source
	logger      logger.Logger
}

// NewPool creates count dispatchers sharing notifier and opts.
func NewPool(count int, q Source, notifier Notifier, opts ...Option) *Pool {
	if count < 1 {
		count = defaultDispatcherCount
	}
	p := &Pool{
		dispatchers: make([]*Dispatcher, count),
		queue:       q,
		logger:      logger.Nop(),
	}
	cfg := &Dispatcher{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger != nil {
		p.logger = cfg.logger.Named("dispatcher-pool")
	}
	shared := newFlights()
	for i := range p.dispatchers {
		named := append(append([]Option{}, opts...), WithName("dispatcher-"+strconv.Itoa(i)), withFlights(shared))
		p.dispatchers[i] = NewDispatcher(q, notifier, named...)
	}
	return p
}

// Size returns the number of dispatchers.
func (p *Pool) Size() int { return len(p.dispatchers) }

// Start launches every dispatcher.
func (p *Pool) Start(ctx context.Context) {
	for _, d := range p.dispatchers {
		go d.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.dispatchers))
}

// Shutdown closes the queue and lets dispatchers drain what is buffered.
// Dispatchers still busy when ctx ends are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, d := range p.dispatchers {
		select {
		case <-d.Done():
		case <-ctx.Done():
			timedOut = true
			d.Stop()
			p.logger.Warn(ctx, "dispatcher shutdown timed out", logger.Int("dispatcher_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
	return nil
}
