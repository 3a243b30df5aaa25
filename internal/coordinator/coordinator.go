// Package coordinator drives one claimed job through decode, dispatch, and
// retry scheduling, grounded on the teacher's indexer_coordinator.py: decode
// the job payload, resolve an Indexer for its (name, type) pair, run it, and
// on failure insert a successor job with one fewer retry and a delayed
// not_before before marking the claim failed and returning the failure.
package coordinator

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/techresidents/indexsvc/internal/indexer"
	"github.com/techresidents/indexsvc/internal/model"
	"github.com/techresidents/indexsvc/internal/queue"
)

// Coordinator processes one claimed job at a time. It is not safe for
// concurrent use by multiple goroutines; callers checkout one Coordinator
// per in-flight job from a pool.
type Coordinator struct {
	db         *sql.DB
	indexers   *indexer.Registry
	retryDelay time.Duration
	log        zerolog.Logger
}

func New(db *sql.DB, indexers *indexer.Registry, retryDelay time.Duration, log zerolog.Logger) *Coordinator {
	return &Coordinator{db: db, indexers: indexers, retryDelay: retryDelay, log: log}
}

// Index decodes claimed.Job(), resolves and runs its Indexer, and finalizes
// the claim. A resolve/run failure schedules a retry job (if retries remain)
// before marking the original claim failed; Finish is always called exactly
// once, on every exit path. The returned error wraps the decode/resolve/run
// failure (and any Finish failure); it is nil only on success.
func (c *Coordinator) Index(ctx context.Context, claimed *queue.ClaimedJob) error {
	job := claimed.Job()
	log := c.log.With().Int64("index_job_id", job.ID).Logger()

	op, decodeErr := job.Op()
	if decodeErr != nil {
		log.Error().Err(decodeErr).Msg("index job payload malformed")
		c.retryRaw(ctx, job, log)
		return errors.Join(decodeErr, claimed.Finish(ctx, decodeErr))
	}

	err := c.process(ctx, op, log)
	if err != nil {
		if errors.Is(err, model.ErrJobOwned) {
			log.Warn().Msg("index job already claimed, skipping")
			return errors.Join(err, claimed.Finish(ctx, err))
		}
		log.Error().Err(err).Msg("index job failed")
		c.retry(ctx, job, op, log)
	} else {
		log.Info().Msg("index job processed successfully")
	}
	return errors.Join(err, claimed.Finish(ctx, err))
}

func (c *Coordinator) process(ctx context.Context, op model.IndexOp, log zerolog.Logger) error {
	idx, err := c.indexers.Resolve(op)
	if err != nil {
		return err
	}
	count, err := idx.Index(ctx, op)
	log.Info().Int("count", count).Str("action", string(op.Action)).
		Str("name", op.Name).Str("type", op.Type).Msg("index op applied")
	return err
}

// retry inserts a successor job with one fewer retry and a delayed
// not_before, matching the teacher's _retry_job. Insert failures are logged,
// not propagated: the original claim still finalizes as failed either way.
func (c *Coordinator) retry(ctx context.Context, job model.IndexJob, op model.IndexOp, log zerolog.Logger) {
	if job.RetriesRemaining <= 0 {
		log.Error().Msg("no retries remaining for index job")
		return
	}
	notBefore := time.Now().UTC().Add(c.retryDelay)
	id, err := queue.Insert(ctx, c.db, job.Context, op, notBefore, job.RetriesRemaining-1)
	if err != nil {
		log.Error().Err(err).Msg("failed to enqueue retry for index job")
		return
	}
	log.Info().Int64("retry_index_job_id", id).Time("not_before", notBefore).Msg("retry scheduled")
}

// retryRaw schedules a retry for a job whose payload failed to decode,
// carrying the original bytes forward unchanged.
func (c *Coordinator) retryRaw(ctx context.Context, job model.IndexJob, log zerolog.Logger) {
	if job.RetriesRemaining <= 0 {
		log.Error().Msg("no retries remaining for index job")
		return
	}
	notBefore := time.Now().UTC().Add(c.retryDelay)
	id, err := queue.InsertRaw(ctx, c.db, job.Context, job.Data, notBefore, job.RetriesRemaining-1)
	if err != nil {
		log.Error().Err(err).Msg("failed to enqueue retry for index job")
		return
	}
	log.Info().Int64("retry_index_job_id", id).Time("not_before", notBefore).Msg("retry scheduled")
}
