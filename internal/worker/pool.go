// Package worker runs a fixed-size pool of goroutines that drain claimed
// jobs off a channel and hand each to a checked-out Coordinator, grounded on
// the teacher's jobmonitor.py IndexThreadPool: a bounded work queue plus N
// worker goroutines, each wrapping its job in a panic barrier so one
// poisoned job cannot take down the process.
package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"github.com/techresidents/indexsvc/internal/coordinator"
	"github.com/techresidents/indexsvc/internal/pool"
	"github.com/techresidents/indexsvc/internal/queue"
)

var errPanicked = errors.New("worker: job processing panicked")

// Pool is a fixed number of worker goroutines consuming claimed jobs from
// an input channel and driving them through a Coordinator checked out of
// coordinators.
type Pool struct {
	coordinators *pool.Pool[*coordinator.Coordinator]
	log          zerolog.Logger
	numWorkers   int

	input chan *queue.ClaimedJob
	wg    sync.WaitGroup
}

// New builds a Pool of numWorkers goroutines. Call Start to begin consuming,
// and Submit to hand it claimed jobs; Submit blocks while all workers are
// busy and the input channel (sized to numWorkers) is full.
func New(numWorkers int, coordinators *pool.Pool[*coordinator.Coordinator], log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Pool{
		coordinators: coordinators,
		log:          log,
		numWorkers:   numWorkers,
		input:        make(chan *queue.ClaimedJob, numWorkers),
	}
}

// Start launches the worker goroutines. They run until ctx is canceled; a
// worker returns as soon as it sees the cancellation, without draining jobs
// still buffered in the input channel.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Submit hands a claimed job to the pool. It blocks until ctx is canceled or
// a worker slot is free.
func (p *Pool) Submit(ctx context.Context, job *queue.ClaimedJob) error {
	select {
	case p.input <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every worker goroutine has exited, which happens only
// after the ctx passed to Start is canceled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.input:
			p.process(ctx, id, job)
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job *queue.ClaimedJob) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().
				Int("worker", workerID).
				Int64("index_job_id", job.Job().ID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered while processing index job")
			_ = job.Finish(ctx, errPanicked)
		}
	}()

	c, release, err := p.coordinators.Acquire(ctx)
	if err != nil {
		p.log.Error().Err(err).Int("worker", workerID).Msg("failed to acquire coordinator")
		_ = job.Finish(ctx, err)
		return
	}
	defer release()

	if err := c.Index(ctx, job); err != nil {
		p.log.Warn().Err(err).Int("worker", workerID).Int64("index_job_id", job.Job().ID).
			Msg("worker finished job with error")
	}
}
