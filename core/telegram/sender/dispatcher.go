// Package sender runs outbound Telegram calls off the update goroutine.
//
// Jobs sharing a key always land on the same worker, so replies to one chat
// keep their order while different chats are sent in parallel.
package sender

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/docbot/core/logger"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job's shard has no free slot.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the total capacity, split evenly across workers.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on a single job, flood waits included.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

// Job is one outbound call. Run must be safe to repeat when retries are enabled.
type Job struct {
	// Key selects the worker; usually the chat id. Empty keys are spread round-robin.
	Key      string
	Action   string
	Endpoint string
	Run      func() error
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Sent    uint64
	Failed  uint64
	Retried uint64
}

type queued struct {
	ctx context.Context
	job Job
}

// Dispatcher executes jobs on keyed worker shards with retries.
type Dispatcher struct {
	opts   Options
	shards []chan queued
	next   atomic.Uint32

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent, failed, retried atomic.Uint64
}

// NewDispatcher starts the workers; zero options get defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	perShard := max(opts.QueueSize/opts.Workers, 1)

	d := &Dispatcher{opts: opts, shards: make([]chan queued, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan queued, perShard)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules j without blocking.
func (d *Dispatcher) Enqueue(ctx context.Context, j Job) error {
	if j.Run == nil {
		return errNilRun
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shards[d.shardFor(j.Key)] <- queued{ctx: ctx, job: j}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(key string) int {
	n := uint32(len(d.shards))
	if key == "" {
		return int(d.next.Add(1) % n)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % n)
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{Sent: d.sent.Load(), Failed: d.failed.Load(), Retried: d.retried.Load()}
}

// Close stops accepting jobs and waits until queued ones finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()

	st := d.Stats()
	logger.Info(context.Background(), "tg.sender", "sender.closed",
		slog.Uint64("sent", st.Sent),
		slog.Uint64("failed", st.Failed),
		slog.Uint64("retried", st.Retried),
	)
}

func (d *Dispatcher) worker(in <-chan queued) {
	defer d.wg.Done()
	for q := range in {
		d.process(q.ctx, q.job)
	}
}

// process runs j until it succeeds or retries run out, and returns the
// number of attempts made.
func (d *Dispatcher) process(ctx context.Context, j Job) int {
	runCtx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	limit := d.opts.MaxRetries + 1
	var (
		err     error
		attempt int
	)
	for attempt = 1; ; attempt++ {
		if err = j.Run(); err == nil {
			d.sent.Add(1)
			level := slog.LevelDebug
			if attempt > 1 {
				level = slog.LevelInfo
			}
			logger.LogEvent(ctx, logger.Component("tg.sender"), level, "send.success",
				append(jobAttrs(j), slog.Int("attempt", attempt), slog.Duration("elapsed", time.Since(start)))...,
			)
			return attempt
		}
		delay, retry := retryDelay(err, attempt, d.opts.RetryBackoff)
		if !retry || attempt >= limit {
			break
		}
		d.retried.Add(1)
		logger.Debug(ctx, "tg.sender", "send.retry",
			append(jobAttrs(j), slog.Int("attempt", attempt), slog.Duration("delay", delay))...,
		)
		if waitErr := sleep(runCtx, delay); waitErr != nil {
			err = waitErr
			break
		}
	}

	d.failed.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail",
		append(jobAttrs(j),
			slog.String("error", redact(err)),
			slog.String("error_kind", classifyError(err)),
			slog.Int("attempts", attempt),
			slog.Duration("elapsed", time.Since(start)),
		)...,
	)
	return attempt
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

func jobAttrs(j Job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.Action)}
	if j.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.Endpoint))
	}
	return attrs
}
