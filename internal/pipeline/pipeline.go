// Package pipeline moves hazard registry changes out of the process.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/marine-watch/internal/domain"
	"github.com/couchcryptid/marine-watch/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchLoader writes multiple hazard updates to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, updates []domain.HazardUpdate) error
}

// Publisher queues registry snapshots handed to Notify and writes them to a
// BatchLoader in order. Notify never blocks: when the queue is full the update
// is dropped.
type Publisher struct {
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	queue     chan domain.HazardUpdate
	batchSize int
	seq       atomic.Uint64
	running   atomic.Bool
}

// New creates a Publisher holding at most bufferSize undelivered updates.
func New(l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize, bufferSize int) *Publisher {
	return &Publisher{
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		queue:     make(chan domain.HazardUpdate, bufferSize),
		batchSize: batchSize,
	}
}

// SetClock swaps the time source for update timestamps and backoff sleeps.
// Pass nil to reset to real time.
func (p *Publisher) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// Notify enqueues a registry snapshot. It has the hazard.Listener signature so
// it can be passed straight to Aggregator.Subscribe.
func (p *Publisher) Notify(hazards []domain.Hazard) {
	update := domain.HazardUpdate{
		Seq:       p.seq.Add(1),
		Hazards:   hazards,
		EmittedAt: p.clock.Now().UTC(),
	}

	select {
	case p.queue <- update:
	default:
		p.metrics.UpdatesDropped.Inc()
		p.logger.Warn("publish queue full, dropping hazard update",
			"seq", update.Seq,
			"hazard_count", len(hazards),
		)
	}
}

// CheckReadiness returns nil while Run is active.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("hazard publisher is not running")
	}
	return nil
}

// Run drains the queue until the context is cancelled. Updates still queued
// at that point are not delivered.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("hazard publisher started", "batch_size", p.batchSize, "buffer", cap(p.queue))
	p.running.Store(true)
	p.metrics.PublisherRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PublisherRunning.Set(0)
	}()

	backoff := initialBackoff
	for {
		batch, ok := p.nextBatch(ctx)
		if !ok {
			p.logger.Info("hazard publisher stopping", "reason", ctx.Err(), "pending", len(p.queue))
			return nil
		}
		if !p.publish(ctx, batch, &backoff) {
			p.logger.Info("hazard publisher stopping", "reason", ctx.Err(), "pending", len(p.queue)+len(batch))
			return nil
		}
	}
}

// nextBatch waits for one update, then takes whatever else is already queued
// up to batchSize. Returns false if the context ends first.
func (p *Publisher) nextBatch(ctx context.Context) ([]domain.HazardUpdate, bool) {
	var first domain.HazardUpdate
	select {
	case <-ctx.Done():
		return nil, false
	case first = <-p.queue:
	}

	batch := make([]domain.HazardUpdate, 1, p.batchSize)
	batch[0] = first
	for len(batch) < p.batchSize {
		select {
		case u := <-p.queue:
			batch = append(batch, u)
		default:
			return batch, true
		}
	}
	return batch, true
}

// publish writes the batch, retrying with exponential backoff until it
// succeeds. Returns false if the context ends before the batch is written.
func (p *Publisher) publish(ctx context.Context, batch []domain.HazardUpdate, backoff *time.Duration) bool {
	start := p.clock.Now()
	p.metrics.PublishBatchSize.Observe(float64(len(batch)))

	for {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			p.metrics.UpdatesPublished.Add(float64(len(batch)))
			p.metrics.PublishDuration.Observe(p.clock.Since(start).Seconds())
			*backoff = initialBackoff
			return true
		}

		if ctx.Err() != nil {
			return false
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish hazard updates failed",
			"error", err,
			"batch_size", len(batch),
			"first_seq", batch[0].Seq,
			"retry_in", *backoff,
		)
		if !p.sleep(ctx, *backoff) {
			return false
		}
		*backoff = nextBackoff(*backoff)
	}
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
