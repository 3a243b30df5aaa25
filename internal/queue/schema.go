package queue

// Schema is the DDL for the index_job table and its claimable-candidate
// index. Callers run it once at startup, typically via db.ExecContext, or
// via an external migration tool; the queue itself never applies it
// implicitly.
const Schema = `
CREATE TABLE IF NOT EXISTS index_job (
	id                BIGSERIAL PRIMARY KEY,
	context           TEXT NOT NULL,
	data              JSONB NOT NULL,
	created           TIMESTAMPTZ NOT NULL DEFAULT now(),
	not_before        TIMESTAMPTZ NOT NULL,
	retries_remaining INTEGER NOT NULL,
	owner             TEXT,
	start             TIMESTAMPTZ,
	"end"             TIMESTAMPTZ,
	successful        BOOLEAN
);

CREATE INDEX IF NOT EXISTS index_job_claimable_idx
	ON index_job (not_before)
	WHERE owner IS NULL AND successful IS NULL;
`
