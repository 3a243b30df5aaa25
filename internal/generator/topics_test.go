package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techresidents/indexsvc/internal/model"
)

func TestTopicGenerator_BuildsTreeSummaryAndTags(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()

	var typeID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO topic_types (name) VALUES ('interview') RETURNING id`).Scan(&typeID))

	var rootID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO topics (type_id, title, description, rank, public, active)
		 VALUES ($1, 'Root Topic', 'root description', 0, true, true) RETURNING id`, typeID).Scan(&rootID))

	var childID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO topics (parent_id, type_id, title, description, rank, public, active)
		 VALUES ($1, $2, 'Child Topic', 'child description', 1, true, true) RETURNING id`,
		rootID, typeID).Scan(&childID))

	var tagID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO tags (name) VALUES ('golang') RETURNING id`).Scan(&tagID))
	_, err := testDB.ExecContext(ctx, `INSERT INTO topic_tags (topic_id, tag_id) VALUES ($1, $2)`, rootID, tagID)
	require.NoError(t, err)

	gen := NewTopicGenerator(testDB)
	it, err := gen.Generate(ctx, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, it.Close()) }()

	key, doc, ok, err := it.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", key)
	assert.Equal(t, "Root Topic", doc["title"])
	assert.Equal(t, "Child Topic child description", doc["subtopic_summary"])

	tree, ok := doc["tree"].([]model.Document)
	require.True(t, ok)
	require.Len(t, tree, 1)
	assert.Equal(t, "Child Topic", tree[0]["title"])

	tags, ok := doc["tags"].([]model.Document)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, "golang", tags[0]["name"])

	_, _, ok, err = it.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTopicGenerator_OnlyRootRankZeroReturned(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()

	var typeID int64
	require.NoError(t, testDB.QueryRowContext(ctx,
		`INSERT INTO topic_types (name) VALUES ('interview') RETURNING id`).Scan(&typeID))
	_, err := testDB.ExecContext(ctx,
		`INSERT INTO topics (type_id, title, description, rank, public, active)
		 VALUES ($1, 'Non Root', 'desc', 1, true, true)`, typeID)
	require.NoError(t, err)

	gen := NewTopicGenerator(testDB)
	it, err := gen.Generate(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, drain(t, it))
}
