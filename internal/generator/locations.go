package generator

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/techresidents/indexsvc/internal/model"
)

const locationsQuery = `
SELECT id, region
FROM locations
WHERE cardinality($1::text[]) = 0 OR id::text = ANY($1::text[])
ORDER BY id`

// LocationGenerator produces one document per location row.
type LocationGenerator struct {
	db *sql.DB
}

func NewLocationGenerator(db *sql.DB) *LocationGenerator {
	return &LocationGenerator{db: db}
}

func (g *LocationGenerator) Generate(ctx context.Context, keys []string) (Iterator, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: locations: acquire connection: %w", err)
	}
	rows, err := conn.QueryContext(ctx, locationsQuery, keysFilter(keys))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("generator: locations: query: %w", err)
	}
	return &rowsIterator{conn: conn, rows: rows, scan: scanLocationRow}, nil
}

func scanLocationRow(rows *sql.Rows) (string, model.Document, error) {
	var id int64
	var region string
	if err := rows.Scan(&id, &region); err != nil {
		return "", nil, err
	}
	doc := model.Document{"id": id, "region": region}
	return strconv.FormatInt(id, 10), doc, nil
}
