// Package generator produces the (key, document) pairs an Indexer puts into
// a search backend, one (index name, document type) pair at a time, lazily
// and backed by a single database session per generation.
package generator

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/techresidents/indexsvc/internal/model"
)

// Iterator is a finite, single-pass, pull-based sequence of (key, document)
// pairs. Callers MUST call Close exactly once, on every exit path, to
// release the underlying database session — restart by calling Generate
// again, not by reusing a spent Iterator.
type Iterator interface {
	// Next advances the sequence. ok is false once the sequence is
	// exhausted; err is non-nil if the underlying query failed, in which
	// case the job should be retried (a generator failure is not
	// permanent).
	Next(ctx context.Context) (key string, doc model.Document, ok bool, err error)
	Close() error
}

// Generator knows how to assemble documents of one (index name, document
// type) pair from the relational store.
type Generator interface {
	// Generate opens a new lazy sequence over keys (empty = all). The
	// returned Iterator owns one *sql.Conn for its lifetime.
	Generate(ctx context.Context, keys []string) (Iterator, error)
}

// Constructor builds a Generator bound to a shared *sql.DB; each Generate
// call checks out its own connection from that pool.
type Constructor func(db *sql.DB) Generator

type pairKey struct {
	name string
	typ  string
}

// Registry maps (index name, document type) to a Generator constructor.
type Registry struct {
	db           *sql.DB
	constructors map[pairKey]Constructor
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db, constructors: make(map[pairKey]Constructor)}
}

// Register adds support for a (name, type) pair. Re-registering the same
// pair replaces the prior constructor.
func (r *Registry) Register(name, docType string, ctor Constructor) {
	r.constructors[pairKey{name, docType}] = ctor
}

// Resolve returns a Generator for (name, type), or model.ErrUnsupportedTarget
// if no generator is registered for that pair.
func (r *Registry) Resolve(name, docType string) (Generator, error) {
	ctor, ok := r.constructors[pairKey{name, docType}]
	if !ok {
		return nil, fmt.Errorf("%w: (%s, %s)", model.ErrUnsupportedTarget, name, docType)
	}
	return ctor(r.db), nil
}

// DefaultRegistry wires up the four generators recognized by spec §4.6.
func DefaultRegistry(db *sql.DB) *Registry {
	r := NewRegistry(db)
	r.Register("users", "user", func(db *sql.DB) Generator { return NewUserGenerator(db) })
	r.Register("technologies", "technology", func(db *sql.DB) Generator { return NewTechnologyGenerator(db) })
	r.Register("topics", "topic", func(db *sql.DB) Generator { return NewTopicGenerator(db) })
	r.Register("locations", "location", func(db *sql.DB) Generator { return NewLocationGenerator(db) })
	return r
}

// rowsIterator adapts a *sql.Conn + *sql.Rows pair, plus a per-type scan
// function, into an Iterator. Shared by every concrete generator below.
type rowsIterator struct {
	conn *sql.Conn
	rows *sql.Rows
	scan func(*sql.Rows) (string, model.Document, error)
}

func (it *rowsIterator) Next(ctx context.Context) (string, model.Document, bool, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return "", nil, false, err
		}
		return "", nil, false, nil
	}
	key, doc, err := it.scan(it.rows)
	if err != nil {
		return "", nil, false, err
	}
	return key, doc, true, nil
}

func (it *rowsIterator) Close() error {
	rowsErr := it.rows.Close()
	connErr := it.conn.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return connErr
}

// keysFilter turns a possibly-empty key list into the (cardinality=0 OR
// id=ANY(...)) pattern used by every generator query below: empty means
// "all keys".
func keysFilter(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
