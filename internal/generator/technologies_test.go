package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTechnologyGenerator_ProducesDocumentPerRow(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()

	var typeID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO technology_types (name) VALUES ('language') RETURNING id`).Scan(&typeID))
	var techID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO technologies (name, description, type_id) VALUES ('Go', 'a language', $1) RETURNING id`,
		typeID).Scan(&techID))

	gen := NewTechnologyGenerator(testDB)
	it, err := gen.Generate(ctx, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, it.Close()) }()

	key, doc, ok, err := it.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", key)
	assert.Equal(t, "Go", doc["name"])
	assert.Equal(t, "language", doc["type"])

	_, _, ok, err = it.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTechnologyGenerator_FiltersByKeys(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()

	var typeID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO technology_types (name) VALUES ('language') RETURNING id`).Scan(&typeID))
	_, err := testDB.ExecContext(ctx,
		`INSERT INTO technologies (name, type_id) VALUES ('Go', $1), ('Rust', $1)`, typeID)
	require.NoError(t, err)

	gen := NewTechnologyGenerator(testDB)
	it, err := gen.Generate(ctx, []string{"2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, drain(t, it))
}
