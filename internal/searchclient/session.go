package searchclient

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/techresidents/indexsvc/internal/model"
)

// BulkSession is a scoped batching handle against the search backend: it
// accumulates update puts (create=false) up to autoFlush, flushes them via
// the Weaviate batch objects API, issues create puts and deletes one object
// at a time without buffering, and exposes the accumulated per-operation error list for the caller
// to inspect after every put/delete (spec §4.5 step 3). Close performs the
// final flush; the session must not be reused afterward.
type BulkSession struct {
	client    *weaviate.Client
	class     string
	autoFlush int
	buffer    []*models.Object
	errs      []error
}

// Put stages (or immediately issues, for create=true) an upsert of doc under
// key. create=true uses the single-object Creator call, which Weaviate
// rejects if the id already exists — used to catch duplicate-create bugs.
// create=false buffers into the batch, auto-flushing at the threshold.
func (s *BulkSession) Put(ctx context.Context, key string, doc model.Document, create bool) error {
	id := strfmt.UUID(objectID(s.class, key).String())

	if create {
		_, err := s.client.Data().Creator().
			WithClassName(s.class).
			WithID(id.String()).
			WithProperties(map[string]interface{}(doc)).
			Do(ctx)
		if err != nil {
			s.errs = append(s.errs, fmt.Errorf("searchclient: create %s/%s: %w", s.class, key, err))
		}
		return nil
	}

	s.buffer = append(s.buffer, &models.Object{
		Class:      s.class,
		ID:         id,
		Properties: map[string]interface{}(doc),
	})
	if len(s.buffer) >= s.autoFlush {
		return s.Flush(ctx)
	}
	return nil
}

// Delete issues an individual delete for key. Weaviate's batch deleter
// operates by filter rather than an explicit id list, so deletes are not
// batched; their errors append to the same list Put uses.
func (s *BulkSession) Delete(ctx context.Context, key string) error {
	id := objectID(s.class, key).String()
	err := s.client.Data().Deleter().
		WithClassName(s.class).
		WithID(id).
		Do(ctx)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("searchclient: delete %s/%s: %w", s.class, key, err))
	}
	return nil
}

// Flush sends any buffered puts to the backend and clears the buffer,
// appending any per-object failures to the session's error list.
func (s *BulkSession) Flush(ctx context.Context) error {
	if len(s.buffer) == 0 {
		return nil
	}
	objs := s.buffer
	s.buffer = nil

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("searchclient: batch flush: %w", err))
		return nil
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			s.errs = append(s.errs, fmt.Errorf("searchclient: batch item %s failed: %v", item.ID, item.Result.Errors.Error))
		}
	}
	return nil
}

// Close performs the final flush. The design accepts partial writes on a
// mid-session backend error because retries reconcile under update
// semantics.
func (s *BulkSession) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

// Errors returns every per-operation failure recorded so far. A non-empty
// result after any Put/Delete means the caller should treat the job as
// failed (model.ErrBackend).
func (s *BulkSession) Errors() []error {
	return s.errs
}
