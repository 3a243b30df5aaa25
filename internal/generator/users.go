package generator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/techresidents/indexsvc/internal/model"
)

const developerTenantID = 1

// usersQuery aggregates skills and the three job preference lists via
// correlated subqueries rather than LEFT JOINs, so a user with multiple
// skills and multiple prefs doesn't multiply into a join cross-product
// that would need de-duplicating back out.
const usersQuery = `
SELECT
	u.id,
	u.date_joined,
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', sk.id,
			'name', t.name,
			'yrs_experience', sk.yrs_experience,
			'technology_id', t.id,
			'expertise_type_id', et.id,
			'expertise_type', et.name
		))
		FROM skills sk
		JOIN technologies t ON t.id = sk.technology_id
		JOIN expertise_types et ON et.id = sk.expertise_type_id
		WHERE sk.user_id = u.id
	), '[]') AS skills,
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', lp.id,
			'location_id', l.id,
			'city', l.city,
			'state', l.state,
			'name', CASE WHEN l.city <> '' THEN l.city || ', ' || l.state ELSE l.state END
		))
		FROM job_location_prefs lp
		JOIN locations l ON l.id = lp.location_id
		WHERE lp.user_id = u.id
	), '[]') AS location_prefs,
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', tp.id,
			'name', t.name,
			'technology_id', t.id
		))
		FROM job_technology_prefs tp
		JOIN technologies t ON t.id = tp.technology_id
		WHERE tp.user_id = u.id
	), '[]') AS technology_prefs,
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', pp.id,
			'type', pt.name,
			'type_id', pt.id,
			'salary_start', pp.salary_start,
			'salary_end', pp.salary_end
		))
		FROM job_position_type_prefs pp
		JOIN position_types pt ON pt.id = pp.position_type_id
		WHERE pp.user_id = u.id
	), '[]') AS position_prefs,
	CASE
		WHEN u.developer_since IS NOT NULL THEN EXTRACT(YEAR FROM age(now(), u.developer_since))::int
		ELSE (SELECT MAX(yrs_experience) FROM skills WHERE user_id = u.id)
	END AS yrs_experience
FROM users u
WHERE u.tenant_id = $1
  AND (cardinality($2::text[]) = 0 OR u.id::text = ANY($2::text[]))
ORDER BY u.id`

// UserGenerator produces one document per developer user, aggregating the
// user's skills and job location/technology/position preferences, and
// deriving total years of experience: from the user's developer_since date
// when present, otherwise from the max yrs_experience across their skills
// (the original's fallback for profiles with no explicit start date).
type UserGenerator struct {
	db *sql.DB
}

func NewUserGenerator(db *sql.DB) *UserGenerator {
	return &UserGenerator{db: db}
}

func (g *UserGenerator) Generate(ctx context.Context, keys []string) (Iterator, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: users: acquire connection: %w", err)
	}
	rows, err := conn.QueryContext(ctx, usersQuery, developerTenantID, keysFilter(keys))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("generator: users: query: %w", err)
	}
	return &rowsIterator{conn: conn, rows: rows, scan: scanUserRow}, nil
}

func scanUserRow(rows *sql.Rows) (string, model.Document, error) {
	var id int64
	var dateJoined sql.NullTime
	var skillsRaw, locationPrefsRaw, technologyPrefsRaw, positionPrefsRaw []byte
	var yrsExperience sql.NullInt64

	if err := rows.Scan(&id, &dateJoined, &skillsRaw, &locationPrefsRaw, &technologyPrefsRaw,
		&positionPrefsRaw, &yrsExperience); err != nil {
		return "", nil, err
	}

	skills, err := decodeDocumentList(skillsRaw)
	if err != nil {
		return "", nil, fmt.Errorf("generator: users: decode skills: %w", err)
	}
	locationPrefs, err := decodeDocumentList(locationPrefsRaw)
	if err != nil {
		return "", nil, fmt.Errorf("generator: users: decode location_prefs: %w", err)
	}
	technologyPrefs, err := decodeDocumentList(technologyPrefsRaw)
	if err != nil {
		return "", nil, fmt.Errorf("generator: users: decode technology_prefs: %w", err)
	}
	positionPrefs, err := decodeDocumentList(positionPrefsRaw)
	if err != nil {
		return "", nil, fmt.Errorf("generator: users: decode position_prefs: %w", err)
	}

	doc := model.Document{
		"id":               id,
		"skills":           skills,
		"location_prefs":   locationPrefs,
		"technology_prefs": technologyPrefs,
		"position_prefs":   positionPrefs,
		"score":            0,
	}
	if dateJoined.Valid {
		doc["joined"] = dateJoined.Time
	}
	if yrsExperience.Valid {
		doc["yrs_experience"] = yrsExperience.Int64
	} else {
		doc["yrs_experience"] = nil
	}
	return strconv.FormatInt(id, 10), doc, nil
}

func decodeDocumentList(raw []byte) ([]map[string]interface{}, error) {
	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
