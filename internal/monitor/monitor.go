// Package monitor runs the poll-and-dispatch loop that bridges the durable
// queue to the worker pool, grounded on the teacher's jobmonitor.py
// IndexJobMonitor: get the next claimable job, hand it to the thread pool,
// and keep looping until told to stop.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/techresidents/indexsvc/internal/model"
	"github.com/techresidents/indexsvc/internal/queue"
	"github.com/techresidents/indexsvc/internal/worker"
)

// Monitor polls the queue and submits claimed jobs to the worker pool. It
// treats ErrQueueEmpty as routine (just loop again) and ErrQueueStopped as
// the exit signal.
type Monitor struct {
	queue   *queue.DatabaseJobQueue
	workers *worker.Pool
	log     zerolog.Logger

	doneCh chan struct{}
	once   sync.Once
}

func New(q *queue.DatabaseJobQueue, workers *worker.Pool, log zerolog.Logger) *Monitor {
	return &Monitor{queue: q, workers: workers, log: log, doneCh: make(chan struct{})}
}

// Start begins polling in a background goroutine. It returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	m.queue.Start(ctx)
	m.workers.Start(ctx)
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	defer m.once.Do(func() { close(m.doneCh) })
	m.log.Info().Msg("index job monitor starting")

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("index job monitor stopping")
			return
		default:
		}

		job, err := m.queue.Get(ctx)
		switch {
		case err == nil:
			if submitErr := m.workers.Submit(ctx, job); submitErr != nil {
				m.log.Error().Err(submitErr).Int64("index_job_id", job.Job().ID).Msg("failed to submit index job")
				_ = job.Finish(ctx, submitErr)
			}
		case errors.Is(err, model.ErrQueueEmpty):
			continue
		case errors.Is(err, model.ErrQueueStopped):
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		default:
			m.log.Error().Err(err).Msg("index job monitor get failed")
			time.Sleep(time.Second)
		}
	}
}

// Stop signals the underlying queue to stop delivering jobs.
func (m *Monitor) Stop() {
	m.queue.Stop()
}

// Join blocks until the monitor loop has exited, returning
// context.DeadlineExceeded if timeout elapses first. Once the loop has
// exited it also waits, with no time bound, for the worker goroutines, which
// exit only after the ctx passed to Start is canceled.
func (m *Monitor) Join(timeout time.Duration) error {
	select {
	case <-m.doneCh:
		m.workers.Wait()
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
