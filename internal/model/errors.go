package model

import "errors"

var (
	// ErrValidation is returned when caller-supplied input fails shape checks.
	ErrValidation = errors.New("validation error")

	// ErrJobOwned signals that a job row was claimed by another worker
	// between candidate selection and the claim update. Not an error
	// condition for the caller; it means "skip this job, someone else has it".
	ErrJobOwned = errors.New("job already owned")

	// ErrQueueEmpty is returned by DatabaseJobQueue.Get when no job was
	// ready before the poll interval elapsed.
	ErrQueueEmpty = errors.New("queue empty")

	// ErrQueueStopped is returned by DatabaseJobQueue.Get after Stop has
	// been called and no further jobs will be delivered.
	ErrQueueStopped = errors.New("queue stopped")

	// ErrUnsupportedTarget is returned when no Indexer/Generator is
	// registered for a (name, type) pair.
	ErrUnsupportedTarget = errors.New("unsupported index name/type")

	// ErrDecode is returned when a job's data payload cannot be decoded
	// into an IndexOp.
	ErrDecode = errors.New("malformed index job payload")

	// ErrBackend is returned when a bulk session reports a non-empty
	// error list after an operation.
	ErrBackend = errors.New("search backend error")
)
