package generator

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *sql.DB

const testSchema = `
CREATE TABLE users (
	id SERIAL PRIMARY KEY,
	tenant_id INT NOT NULL,
	date_joined TIMESTAMPTZ,
	developer_since TIMESTAMPTZ
);

CREATE TABLE expertise_types (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE technology_types (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE technologies (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	type_id INT NOT NULL REFERENCES technology_types(id)
);

CREATE TABLE skills (
	id SERIAL PRIMARY KEY,
	user_id INT NOT NULL REFERENCES users(id),
	technology_id INT NOT NULL REFERENCES technologies(id),
	expertise_type_id INT NOT NULL REFERENCES expertise_types(id),
	yrs_experience INT NOT NULL
);

CREATE TABLE locations (
	id SERIAL PRIMARY KEY,
	region TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT ''
);

CREATE TABLE position_types (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE job_location_prefs (
	id SERIAL PRIMARY KEY,
	user_id INT NOT NULL REFERENCES users(id),
	location_id INT NOT NULL REFERENCES locations(id)
);

CREATE TABLE job_technology_prefs (
	id SERIAL PRIMARY KEY,
	user_id INT NOT NULL REFERENCES users(id),
	technology_id INT NOT NULL REFERENCES technologies(id)
);

CREATE TABLE job_position_type_prefs (
	id SERIAL PRIMARY KEY,
	user_id INT NOT NULL REFERENCES users(id),
	position_type_id INT NOT NULL REFERENCES position_types(id),
	salary_start INT,
	salary_end INT
);

CREATE TABLE topic_types (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE topics (
	id SERIAL PRIMARY KEY,
	parent_id INT REFERENCES topics(id),
	type_id INT NOT NULL REFERENCES topic_types(id),
	duration INT,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	recommended_participants INT,
	rank INT NOT NULL,
	public BOOLEAN NOT NULL DEFAULT true,
	active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE tags (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE topic_tags (
	topic_id INT NOT NULL REFERENCES topics(id),
	tag_id INT NOT NULL REFERENCES tags(id)
);
`

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("indexsvc"),
		postgres.WithUsername("indexsvc"),
		postgres.WithPassword("indexsvc"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		panic(err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic(err)
	}
	if _, err := db.ExecContext(ctx, testSchema); err != nil {
		panic(err)
	}
	testDB = db

	code := m.Run()
	_ = db.Close()
	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(`TRUNCATE
		topic_tags, tags, topics, topic_types,
		job_location_prefs, job_technology_prefs, job_position_type_prefs, position_types,
		locations, skills, technologies, technology_types, expertise_types, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func drain(t *testing.T, it Iterator) []string {
	t.Helper()
	defer func() { require.NoError(t, it.Close()) }()

	ctx := context.Background()
	var keys []string
	for {
		key, _, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			return keys
		}
		keys = append(keys, key)
	}
}
