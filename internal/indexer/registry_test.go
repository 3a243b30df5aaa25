package indexer

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techresidents/indexsvc/internal/generator"
	"github.com/techresidents/indexsvc/internal/model"
)

func TestRegistry_Resolve_UnsupportedTarget(t *testing.T) {
	r := NewRegistry(generator.NewRegistry(nil), nil)

	_, err := r.Resolve(model.IndexOp{Name: "widgets", Type: "widget"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnsupportedTarget)
}

func TestRegistry_Resolve_Found(t *testing.T) {
	gens := generator.NewRegistry(nil)
	gens.Register("users", "user", func(db *sql.DB) generator.Generator {
		return nil
	})
	r := NewRegistry(gens, nil)

	idx, err := r.Resolve(model.IndexOp{Name: "users", Type: "user"})
	require.NoError(t, err)
	assert.NotNil(t, idx)
}
