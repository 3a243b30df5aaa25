package model

import "time"

// IndexJob mirrors a row of the index_job table: a durable, leasable unit
// of work describing one IndexOp plus its retry bookkeeping.
type IndexJob struct {
	ID                int64
	Context           string
	Data              []byte
	Created           time.Time
	NotBefore         time.Time
	RetriesRemaining  int
	Owner             *string
	Start             *time.Time
	End               *time.Time
	Successful        *bool
}

// Op decodes the job's payload into an IndexOp.
func (j IndexJob) Op() (IndexOp, error) {
	return DecodeIndexOp(j.Data)
}

// Claimed reports whether some owner currently holds this job's lease.
func (j IndexJob) Claimed() bool {
	return j.Owner != nil
}

// Document is the generic key/value representation of a single indexable
// entity, produced by a Generator and handed to an Indexer.
type Document map[string]interface{}
