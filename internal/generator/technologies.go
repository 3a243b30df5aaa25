package generator

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/techresidents/indexsvc/internal/model"
)

const technologiesQuery = `
SELECT t.id, t.name, t.description, t.type_id, tt.name AS type_name
FROM technologies t
JOIN technology_types tt ON tt.id = t.type_id
WHERE cardinality($1::text[]) = 0 OR t.id::text = ANY($1::text[])
ORDER BY t.id`

// TechnologyGenerator produces one document per technology row, joined to
// its technology type.
type TechnologyGenerator struct {
	db *sql.DB
}

func NewTechnologyGenerator(db *sql.DB) *TechnologyGenerator {
	return &TechnologyGenerator{db: db}
}

func (g *TechnologyGenerator) Generate(ctx context.Context, keys []string) (Iterator, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: technologies: acquire connection: %w", err)
	}
	rows, err := conn.QueryContext(ctx, technologiesQuery, keysFilter(keys))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("generator: technologies: query: %w", err)
	}
	return &rowsIterator{conn: conn, rows: rows, scan: scanTechnologyRow}, nil
}

func scanTechnologyRow(rows *sql.Rows) (string, model.Document, error) {
	var id, typeID int64
	var name, typeName string
	var description sql.NullString
	if err := rows.Scan(&id, &name, &description, &typeID, &typeName); err != nil {
		return "", nil, err
	}
	doc := model.Document{
		"id":          id,
		"name":        name,
		"description": description.String,
		"type_id":     typeID,
		"type":        typeName,
	}
	return strconv.FormatInt(id, 10), doc, nil
}
