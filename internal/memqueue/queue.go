// Package memqueue provides the background work queue that decouples
// memory indexing and progress logging from the reply path. Jobs run on
// a single worker goroutine in submission order, with bounded
// exponential-backoff retries on failure.
package memqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrQueueClosed is returned by Submit and Barrier after Stop.
var ErrQueueClosed = errors.New("memqueue: queue closed")

// ErrQueueFull is returned when the queue has no room within the
// enqueue timeout.
var ErrQueueFull = errors.New("memqueue: queue full")

// Job is one unit of background work.
type Job func(ctx context.Context) error

// Config tunes queue capacity and retry behavior. Zero values get
// sensible defaults.
type Config struct {
	QueueSize      int
	EnqueueTimeout time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxInterval    time.Duration

	// ErrorHandler receives the final error of a job that exhausted its
	// retries. Optional.
	ErrorHandler func(error)
}

type queuedJob struct {
	ctx context.Context
	job Job
}

// Queue runs submitted jobs in FIFO order on one worker goroutine.
type Queue struct {
	cfg  Config
	jobs chan queuedJob
	log  zerolog.Logger

	done chan struct{}

	// closeMu serializes Submit against Stop: Stop cannot flip closed
	// while a Submit holds the read lock, so a job accepted by Submit is
	// always in the channel before the worker starts its final drain.
	closeMu sync.RWMutex
	closed  bool

	wg sync.WaitGroup
}

// New constructs the queue and starts its worker.
func New(cfg Config, log zerolog.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	q := &Queue{
		cfg:  cfg,
		jobs: make(chan queuedJob, cfg.QueueSize),
		log:  log.With().Str("component", "memqueue").Logger(),
		done: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.runWorker()
	return q
}

// Submit enqueues a job.
//
//   - Returns nil on success.
//   - Returns ErrQueueClosed if the queue is stopped.
//   - Returns ErrQueueFull if no slot frees up within EnqueueTimeout.
//   - Returns ctx.Err() if the caller context is cancelled first.
func (q *Queue) Submit(ctx context.Context, job Job) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	timer := time.NewTimer(q.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case q.jobs <- queuedJob{ctx: ctx, job: job}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrQueueFull
	}
}

// Barrier enqueues a no-op job and waits until it runs, ensuring every
// previously submitted job has completed.
func (q *Queue) Barrier(ctx context.Context) error {
	ran := make(chan struct{})
	if err := q.Submit(ctx, func(context.Context) error {
		close(ran)
		return nil
	}); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ran:
		return nil
	}
}

// Stop drains the remaining jobs and waits for the worker to exit.
// Every job accepted by Submit before Stop returns is run. Stop is
// idempotent and safe for concurrent use.
func (q *Queue) Stop() {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.closeMu.Unlock()

	q.wg.Wait()
}

func (q *Queue) runWorker() {
	defer q.wg.Done()

	for {
		select {
		case qj := <-q.jobs:
			q.run(qj)
		case <-q.done:
			// Drain what is already queued, then exit.
			for {
				select {
				case qj := <-q.jobs:
					q.run(qj)
				default:
					return
				}
			}
		}
	}
}

// run executes one job with bounded exponential-backoff retries.
func (q *Queue) run(qj queuedJob) {
	if qj.job == nil {
		return
	}
	select {
	case <-qj.ctx.Done():
		q.handleError(qj.ctx.Err())
		return
	default:
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = q.cfg.BaseBackoff
	exp.MaxInterval = q.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		err := qj.job.Run(qj.ctx)
		if err == nil {
			return
		}
		if attempt >= q.cfg.MaxAttempts {
			q.log.Error().Err(err).Int("attempts", attempt).Msg("job failed permanently")
			q.handleError(err)
			return
		}
		q.log.Warn().Err(err).Int("attempt", attempt).Msg("job failed, retrying")

		select {
		case <-time.After(exp.NextBackOff()):
		case <-q.done:
			return
		case <-qj.ctx.Done():
			q.handleError(qj.ctx.Err())
			return
		}
	}
}

// Run lets Job satisfy a minimal runner shape.
func (j Job) Run(ctx context.Context) error { return j(ctx) }

func (q *Queue) handleError(err error) {
	if err == nil || q.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Msg("error handler panicked")
		}
	}()
	q.cfg.ErrorHandler(err)
}
