package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// SQLStore is the relational alternative to FileStore named in spec
// §4.K — "kept as a pluggable statestore.Store implementation so the
// telemetry DB's connection-pool pattern is exercised twice" — grounded
// directly on the teacher's internal/tasks/cockroach.go (sql.Open via
// lib/pq, parameterized upsert, scan-on-read).
type SQLStore struct {
	db *sql.DB
}

const sqlStoreSchema = `
CREATE TABLE IF NOT EXISTS execution_states (
	requirement_id TEXT PRIMARY KEY,
	state          JSONB NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewSQLStore opens a Postgres/CockroachDB connection at dsn and ensures
// the execution_states table exists.
func NewSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("statestore: open: %w", err)
	}
	if _, err := db.Exec(sqlStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("statestore: migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the pool.
func (s *SQLStore) Close() error { return s.db.Close() }

// Save upserts state as a JSONB blob, same atomicity guarantee as
// FileStore but delegated to the database's own transaction semantics.
func (s *SQLStore) Save(ctx context.Context, state *PersistedExecutionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("statestore: marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_states (requirement_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (requirement_id) DO UPDATE SET state = excluded.state, updated_at = now()
	`, state.RequirementID, data)
	if err != nil {
		return fmt.Errorf("statestore: upsert: %w", err)
	}
	return nil
}

// Load returns (nil, nil) when no row exists for requirementID.
func (s *SQLStore) Load(ctx context.Context, requirementID string) (*PersistedExecutionState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM execution_states WHERE requirement_id = $1`, requirementID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: query: %w", err)
	}
	var state PersistedExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("statestore: unmarshal: %w", err)
	}
	return &state, nil
}

// List enumerates every stored requirement id.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT requirement_id FROM execution_states ORDER BY requirement_id`)
	if err != nil {
		return nil, fmt.Errorf("statestore: list: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
