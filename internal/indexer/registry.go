package indexer

import (
	"fmt"

	"github.com/techresidents/indexsvc/internal/generator"
	"github.com/techresidents/indexsvc/internal/model"
	"github.com/techresidents/indexsvc/internal/searchclient"
)

// Registry resolves an IndexOp's (name, type) pair to an Indexer, binding
// the shared generator registry and search client pool.
type Registry struct {
	generators *generator.Registry
	clients    *searchclient.Pool
}

func NewRegistry(generators *generator.Registry, clients *searchclient.Pool) *Registry {
	return &Registry{generators: generators, clients: clients}
}

// Resolve returns an Indexer for op.Name/op.Type, or
// model.ErrUnsupportedTarget if no generator is registered for that pair.
func (r *Registry) Resolve(op model.IndexOp) (*Indexer, error) {
	gen, err := r.generators.Resolve(op.Name, op.Type)
	if err != nil {
		return nil, fmt.Errorf("indexer: %w", err)
	}
	return New(r.clients, gen), nil
}
