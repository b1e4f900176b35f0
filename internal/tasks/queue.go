// Package tasks runs fire-and-forget side effects of a turn on a sharded
// queue. Jobs with the same key run one at a time in submission order; jobs
// with different keys may run in parallel.
//
// Callers must not Submit concurrently for the same key; per-key FIFO relies
// on that external serialisation.
package tasks

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Config tunes the queue. Zero values take defaults.
type Config struct {
	Shards         int
	QueueSize      int
	EnqueueTimeout time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxInterval    time.Duration

	// ErrorHandler is called after a job's final failure.
	ErrorHandler func(key string, err error)
}

type queuedJob struct {
	ctx context.Context
	key string
	job Job
}

// Queue executes Jobs on worker goroutines partitioned by a hash of the key.
type Queue struct {
	cfg    Config
	log    zerolog.Logger
	queues []chan queuedJob

	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
}

// New starts the shard workers.
func New(cfg Config, log zerolog.Logger) *Queue {
	if cfg.Shards <= 0 {
		cfg.Shards = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}

	q := &Queue{
		cfg:    cfg,
		log:    log.With().Str("component", "tasks").Logger(),
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		q.queues[i] = ch
		q.wg.Add(1)
		go q.runWorker(i, ch)
	}
	return q
}

// Submit enqueues job on the shard for key. It returns ErrQueueClosed after
// Stop, a *QueueFullError when the shard stays full for EnqueueTimeout, or
// ctx.Err() if ctx ends first. ctx is also the job's run context.
func (q *Queue) Submit(ctx context.Context, key string, job Job) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	shard := q.shardFor(key)
	ch := q.queues[shard]

	timer := time.NewTimer(q.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, key: key, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier waits until every job submitted for key before it has finished.
func (q *Queue) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	if err := q.Submit(ctx, key, JobFunc(func(context.Context) error {
		close(done)
		return nil
	})); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop rejects new work, lets each worker drain its shard once, and waits.
// It is idempotent.
func (q *Queue) Stop() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	q.log.Info().Int("shards", q.cfg.Shards).Msg("stopping task queue")
	close(q.done)
	q.wg.Wait()
	q.log.Info().Msg("task queue drained")
}

// Close lets Queue satisfy io.Closer.
func (q *Queue) Close() error {
	q.Stop()
	return nil
}

func (q *Queue) runWorker(idx int, ch <-chan queuedJob) {
	defer q.wg.Done()
	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			if !q.runWithRetry(label, qj) {
				q.drain(idx, ch)
				return
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))
		case <-q.done:
			q.drain(idx, ch)
			return
		}
	}
}

// runWithRetry reports false when Stop interrupted a backoff wait.
func (q *Queue) runWithRetry(label string, qj queuedJob) bool {
	if qj.job == nil {
		return true
	}
	if err := qj.ctx.Err(); err != nil {
		q.fail(label, qj.key, err)
		return true
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = q.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = q.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	for attempt := 1; ; attempt++ {
		err := q.safeRun(label, qj)
		if err == nil {
			return true
		}
		if isPermanent(err) || attempt >= q.cfg.MaxAttempts {
			q.fail(label, qj.key, err)
			return true
		}
		q.log.Debug().Err(err).Str("key", qj.key).Int("attempt", attempt).Msg("task failed, retrying")

		wait := time.NewTimer(exp.NextBackOff())
		select {
		case <-wait.C:
		case <-q.done:
			wait.Stop()
			q.fail(label, qj.key, err)
			return false
		case <-qj.ctx.Done():
			wait.Stop()
			q.fail(label, qj.key, qj.ctx.Err())
			return true
		}
	}
}

func (q *Queue) safeRun(label string, qj queuedJob) (err error) {
	start := time.Now()
	defer func() {
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Str("key", qj.key).Msg("task panicked")
			err = Permanent(errPanic)
		}
	}()
	return qj.job.Run(qj.ctx)
}

func (q *Queue) drain(idx int, ch <-chan queuedJob) {
	label := labelFor(idx)
	drained := 0
	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			if err := q.safeRun(label, qj); err != nil {
				q.fail(label, qj.key, err)
			}
			drained++
		default:
			if drained > 0 {
				q.log.Info().Int("shard", idx).Int("jobs", drained).Msg("drained shard")
			}
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

func (q *Queue) fail(label, key string, err error) {
	failuresTotal.WithLabelValues(label).Inc()
	q.log.Error().Err(err).Str("key", key).Msg("task failed")
	if q.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Msg("task error handler panicked")
		}
	}()
	q.cfg.ErrorHandler(key, err)
}

func (q *Queue) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(q.cfg.Shards))
}
