package generator

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/techresidents/indexsvc/internal/model"
)

const rootTopicRank = 0

const rootTopicsQuery = `
SELECT t.id, t.type_id, tt.name AS type_name, t.duration, t.title, t.description,
       t.public, t.active
FROM topics t
JOIN topic_types tt ON tt.id = t.type_id
WHERE t.rank = $1
  AND (cardinality($2::text[]) = 0 OR t.id::text = ANY($2::text[]))
ORDER BY t.id`

const subtopicsQuery = `
WITH RECURSIVE tree AS (
	SELECT t.id, t.parent_id, t.type_id, t.duration, t.title, t.description,
	       t.recommended_participants, t.rank, t.public, t.active, 1 AS level
	FROM topics t
	WHERE t.parent_id = $1
	UNION ALL
	SELECT c.id, c.parent_id, c.type_id, c.duration, c.title, c.description,
	       c.recommended_participants, c.rank, c.public, c.active, tree.level + 1
	FROM topics c
	JOIN tree ON c.parent_id = tree.id
)
SELECT tree.id, tree.type_id, tt.name, tree.duration, tree.title, tree.description,
       tree.recommended_participants, tree.rank, tree.public, tree.active, tree.level
FROM tree
JOIN topic_types tt ON tt.id = tree.type_id
ORDER BY tree.level, tree.id`

const topicTagsQuery = `
SELECT tag.id, tag.name
FROM tags tag
JOIN topic_tags tt ON tt.tag_id = tag.id
WHERE tt.topic_id = $1
ORDER BY tag.id`

// TopicGenerator produces one document per root topic (rank = 0), combining
// its subtopic tree and tags. Subtopic titles/descriptions feed a combined
// subtopic_summary field rather than being indexed individually, matching
// the original's intent to search sub-topic text through the root document.
type TopicGenerator struct {
	db *sql.DB
}

func NewTopicGenerator(db *sql.DB) *TopicGenerator {
	return &TopicGenerator{db: db}
}

func (g *TopicGenerator) Generate(ctx context.Context, keys []string) (Iterator, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: topics: acquire connection: %w", err)
	}
	rows, err := conn.QueryContext(ctx, rootTopicsQuery, rootTopicRank, keysFilter(keys))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("generator: topics: query: %w", err)
	}
	return &topicIterator{ctx: ctx, conn: conn, rows: rows}, nil
}

type topicIterator struct {
	ctx  context.Context
	conn *sql.Conn
	rows *sql.Rows
}

func (it *topicIterator) Next(ctx context.Context) (string, model.Document, bool, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return "", nil, false, err
		}
		return "", nil, false, nil
	}

	var id, typeID int64
	var typeName, title, description string
	var duration sql.NullInt64
	var public, active bool
	if err := it.rows.Scan(&id, &typeID, &typeName, &duration, &title, &description, &public, &active); err != nil {
		return "", nil, false, err
	}

	tree, summary, err := it.loadTree(ctx, id)
	if err != nil {
		return "", nil, false, err
	}
	tags, err := it.loadTags(ctx, id)
	if err != nil {
		return "", nil, false, err
	}

	doc := model.Document{
		"id":               id,
		"type":             typeName,
		"duration":         nullableInt(duration),
		"title":            title,
		"description":      description,
		"subtopic_summary": summary,
		"public":           public,
		"active":           active,
		"tree":             tree,
		"tags":             tags,
	}
	return strconv.FormatInt(id, 10), doc, true, nil
}

func (it *topicIterator) loadTree(ctx context.Context, rootID int64) ([]model.Document, string, error) {
	rows, err := it.conn.QueryContext(ctx, subtopicsQuery, rootID)
	if err != nil {
		return nil, "", fmt.Errorf("generator: topics: subtree query: %w", err)
	}
	defer rows.Close()

	var tree []model.Document
	var summary strings.Builder
	for rows.Next() {
		var id, typeID int64
		var typeName, title, description string
		var duration, recommendedParticipants sql.NullInt64
		var rank, level int
		var public, active bool
		if err := rows.Scan(&id, &typeID, &typeName, &duration, &title, &description,
			&recommendedParticipants, &rank, &public, &active, &level); err != nil {
			return nil, "", err
		}
		tree = append(tree, model.Document{
			"id":                       id,
			"type_id":                  typeID,
			"type":                     typeName,
			"duration":                 nullableInt(duration),
			"title":                    title,
			"description":              description,
			"recommended_participants": nullableInt(recommendedParticipants),
			"rank":                     rank,
			"public":                   public,
			"active":                   active,
			"level":                    level,
		})
		summary.WriteString(title)
		summary.WriteString(" ")
		summary.WriteString(description)
		summary.WriteString(" ")
	}
	return tree, strings.TrimSpace(summary.String()), rows.Err()
}

func (it *topicIterator) loadTags(ctx context.Context, topicID int64) ([]model.Document, error) {
	rows, err := it.conn.QueryContext(ctx, topicTagsQuery, topicID)
	if err != nil {
		return nil, fmt.Errorf("generator: topics: tags query: %w", err)
	}
	defer rows.Close()

	var tags []model.Document
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		tags = append(tags, model.Document{"id": id, "name": name})
	}
	return tags, rows.Err()
}

func (it *topicIterator) Close() error {
	rowsErr := it.rows.Close()
	connErr := it.conn.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return connErr
}

func nullableInt(v sql.NullInt64) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Int64
}
