// Package queue implements the durable, leased job queue described by the
// index_job table: polling for claimable rows, an atomic claim CAS, and a
// scoped ClaimedJob whose Finish writes the terminal outcome.
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/techresidents/indexsvc/internal/model"
)

const (
	selectCandidatesSQL = `
SELECT id, context, data, created, not_before, retries_remaining, owner, start, "end", successful
FROM index_job
WHERE owner IS NULL AND successful IS NULL AND not_before <= now()
ORDER BY not_before ASC
LIMIT $1`

	claimSQL = `UPDATE index_job SET owner=$2, start=now() WHERE id=$1 AND owner IS NULL`

	markSuccessSQL = `UPDATE index_job SET successful=true, "end"=now() WHERE id=$1`
	markFailureSQL = `UPDATE index_job SET successful=false, "end"=now() WHERE id=$1`

	insertJobSQL = `
INSERT INTO index_job (context, data, not_before, retries_remaining)
VALUES ($1, $2, $3, $4)
RETURNING id`
)

// Config controls polling cadence and batch size.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 60 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	return c
}

// DatabaseJobQueue is the durable leased-job abstraction over index_job.
type DatabaseJobQueue struct {
	db    *sql.DB
	log   zerolog.Logger
	cfg   Config
	owner string

	candidates chan model.IndexJob
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New constructs a queue bound to db. Call Start to begin polling.
func New(db *sql.DB, cfg Config, log zerolog.Logger) *DatabaseJobQueue {
	cfg = cfg.withDefaults()
	return &DatabaseJobQueue{
		db:         db,
		log:        log,
		cfg:        cfg,
		owner:      uuid.NewString(),
		candidates: make(chan model.IndexJob, cfg.BatchSize),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the internal polling loop. It returns immediately; polling
// runs in a background goroutine, once right away and then every poll
// interval, until Stop is called or ctx is canceled.
func (q *DatabaseJobQueue) Start(ctx context.Context) {
	go q.pollLoop(ctx)
}

// Stop signals the polling loop to exit and unblocks any Get waiting on a
// candidate. In-flight claims are not rolled back.
func (q *DatabaseJobQueue) Stop() {
	select {
	case <-q.stopCh:
	default:
		close(q.stopCh)
	}
}

// Join blocks until the polling loop has exited or timeout elapses.
func (q *DatabaseJobQueue) Join(timeout time.Duration) error {
	select {
	case <-q.doneCh:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("queue: join timed out after %s", timeout)
	}
}

func (q *DatabaseJobQueue) pollLoop(ctx context.Context) {
	defer close(q.doneCh)
	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	if err := q.pollOnce(ctx); err != nil {
		q.log.Error().Err(err).Msg("index job poll failed")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			if err := q.pollOnce(ctx); err != nil {
				q.log.Error().Err(err).Msg("index job poll failed")
			}
		}
	}
}

func (q *DatabaseJobQueue) pollOnce(ctx context.Context) error {
	rows, err := q.db.QueryContext(ctx, selectCandidatesSQL, q.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("queue: poll query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			q.log.Error().Err(err).Msg("index job scan failed")
			continue
		}
		select {
		case q.candidates <- job:
		case <-q.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
	return rows.Err()
}

// Get returns the next claimable job, blocking up to one poll interval. It
// returns model.ErrQueueEmpty if no job became ready in that window, or
// model.ErrQueueStopped once Stop has been called; candidates still buffered
// at that point may or may not be delivered first.
func (q *DatabaseJobQueue) Get(ctx context.Context) (*ClaimedJob, error) {
	timer := time.NewTimer(q.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case cand := <-q.candidates:
			claimed, err := q.claim(ctx, cand)
			if err != nil {
				if err == model.ErrJobOwned {
					q.log.Warn().Int64("job_id", cand.ID).Msg("job already owned, skipping")
					continue
				}
				return nil, err
			}
			return claimed, nil
		case <-q.stopCh:
			return nil, model.ErrQueueStopped
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, model.ErrQueueEmpty
		}
	}
}

func (q *DatabaseJobQueue) claim(ctx context.Context, job model.IndexJob) (*ClaimedJob, error) {
	res, err := q.db.ExecContext(ctx, claimSQL, job.ID, q.owner)
	if err != nil {
		return nil, fmt.Errorf("queue: claim job %d: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("queue: claim job %d rows affected: %w", job.ID, err)
	}
	if n == 0 {
		return nil, model.ErrJobOwned
	}
	owner := q.owner
	job.Owner = &owner
	now := time.Now().UTC()
	job.Start = &now
	return &ClaimedJob{job: job, q: q}, nil
}

// Insert records a new index_job row and returns its id. Used by the RPC
// surface; the CLI scheduler and the coordinator's retry path call the
// package-level Insert directly.
func (q *DatabaseJobQueue) Insert(ctx context.Context, context_ string, op model.IndexOp, notBefore time.Time, retriesRemaining int) (int64, error) {
	return Insert(ctx, q.db, context_, op, notBefore, retriesRemaining)
}

// Insert is the package-level form, usable by callers that only hold a
// *sql.DB (e.g. the coordinator scheduling a retry against the queue's own
// database without going through the queue's channel machinery).
func Insert(ctx context.Context, db *sql.DB, jobContext string, op model.IndexOp, notBefore time.Time, retriesRemaining int) (int64, error) {
	data, err := op.Encode()
	if err != nil {
		return 0, fmt.Errorf("queue: encode op: %w", err)
	}
	return InsertRaw(ctx, db, jobContext, data, notBefore, retriesRemaining)
}

// InsertRaw inserts a job from an already-encoded payload, used to retry a
// job whose data could not be decoded (the failing bytes are carried
// forward unchanged rather than re-encoded from a zero-valued IndexOp).
func InsertRaw(ctx context.Context, db *sql.DB, jobContext string, data []byte, notBefore time.Time, retriesRemaining int) (int64, error) {
	if jobContext == "" {
		return 0, fmt.Errorf("%w: context must not be empty", model.ErrValidation)
	}
	var id int64
	err := db.QueryRowContext(ctx, insertJobSQL, jobContext, data, notBefore.UTC(), retriesRemaining).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("queue: insert job: %w", err)
	}
	return id, nil
}

func scanJob(rows *sql.Rows) (model.IndexJob, error) {
	var j model.IndexJob
	var owner sql.NullString
	var start, end sql.NullTime
	var successful sql.NullBool
	if err := rows.Scan(&j.ID, &j.Context, &j.Data, &j.Created, &j.NotBefore, &j.RetriesRemaining, &owner, &start, &end, &successful); err != nil {
		return model.IndexJob{}, err
	}
	if owner.Valid {
		j.Owner = &owner.String
	}
	if start.Valid {
		j.Start = &start.Time
	}
	if end.Valid {
		j.End = &end.Time
	}
	if successful.Valid {
		j.Successful = &successful.Bool
	}
	return j, nil
}

// ClaimedJob is a scoped handle on one leased row: entering (via Get/claim)
// sets owner+start; Finish marks the terminal outcome (successful=TRUE on a
// nil cause, successful=FALSE otherwise) and sets end. Finish must be called
// exactly once, typically via defer at the call site, since Go has no
// context-manager sugar to enforce it automatically. Re-finishing is a no-op.
type ClaimedJob struct {
	job      model.IndexJob
	q        *DatabaseJobQueue
	finished bool
}

// Job returns the claimed row as seen at claim time.
func (c *ClaimedJob) Job() model.IndexJob {
	return c.job
}

// Finish marks the row terminal. Pass nil for a successful completion, or
// the failure cause otherwise (the cause itself is not stored in the row;
// callers should log it before calling Finish).
func (c *ClaimedJob) Finish(ctx context.Context, cause error) error {
	if c.finished {
		return nil
	}
	c.finished = true
	sqlStmt := markSuccessSQL
	if cause != nil {
		sqlStmt = markFailureSQL
	}
	if _, err := c.q.db.ExecContext(ctx, sqlStmt, c.job.ID); err != nil {
		return fmt.Errorf("queue: finish job %d: %w", c.job.ID, err)
	}
	return nil
}
