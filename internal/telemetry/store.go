package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// PoolConfig configures the connection pool, mirroring the teacher's
// CockroachConfig — "a separate thread-safe connection pool is required
// to avoid single-writer serialization under concurrent executors"
// (spec §9).
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig matches the teacher's CockroachConfig defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 5 * time.Minute}
}

// Store is the telemetry backing store: agents + telemetry tables behind
// a pooled *sql.DB.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) a sqlite database at path and ensures the
// schema exists. Each insert is its own transaction per spec §5.
func Open(path string, cfg PoolConfig) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("telemetry: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

// UpsertAgent inserts or replaces one agents row.
func (s *Store) UpsertAgent(ctx context.Context, a AgentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (id, parent_id, plan_id, type, status, pid, start, end, exit_code, error, log_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			plan_id   = excluded.plan_id,
			type      = excluded.type,
			status    = excluded.status,
			pid       = excluded.pid,
			start     = excluded.start,
			end       = excluded.end,
			exit_code = excluded.exit_code,
			error     = excluded.error,
			log_path  = excluded.log_path
	`,
		a.ID, nullStr(a.ParentID), nullStr(a.PlanID), a.Type, a.Status,
		a.PID, a.Start, nullTime(a.End), nullInt(a.ExitCode), nullStr(a.Err), nullStr(a.LogPath),
	)
	if err != nil {
		return fmt.Errorf("telemetry: upsert agent: %w", err)
	}
	return nil
}

// InsertTelemetry records one Record, computing cost with table first.
func (s *Store) InsertTelemetry(ctx context.Context, r *Record, table RateTable) error {
	cost := r.CalculateCost(table)
	var approved sql.NullBool
	if r.ToolApproved != nil {
		approved = sql.NullBool{Bool: *r.ToolApproved, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO telemetry (
			agent_id, ts, input_tokens, output_tokens, cached_tokens,
			cache_creation_tokens, cache_read_tokens, total_tokens,
			estimated_cost, model, provider, tool_name, tool_args,
			tool_approved, tool_approval_type, engine_id,
			api_key_id, team, project, cost_center
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.AgentID, r.Timestamp, r.Usage.InputTokens, r.Usage.OutputTokens, r.Usage.CachedTokens,
		r.Usage.CacheCreationTokens, r.Usage.CacheReadTokens, r.Usage.Total(),
		cost, nullStr(r.Model), nullStr(r.Provider), nullStr(r.ToolName), nullStr(r.ToolArgs),
		approved, nullStr(r.ToolApproval), nullStr(r.EngineID),
		nullStr(r.Attribution.APIKeyID), nullStr(r.Attribution.Team), nullStr(r.Attribution.Project), nullStr(r.Attribution.CostCenter),
	)
	if err != nil {
		return fmt.Errorf("telemetry: insert: %w", err)
	}
	return nil
}

// Filter selects a range/subset of telemetry rows for Query/Export.
type Filter struct {
	AgentID  string
	PlanID   string
	Provider string
	Model    string
	Since    time.Time
	Until    time.Time
}

// Query returns telemetry rows matching f, most recent first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Record, error) {
	query := `
		SELECT t.agent_id, t.ts, t.input_tokens, t.output_tokens, t.cached_tokens,
			   t.cache_creation_tokens, t.cache_read_tokens,
			   t.estimated_cost, t.model, t.provider, t.tool_name, t.tool_args,
			   t.engine_id, t.api_key_id, t.team, t.project, t.cost_center
		FROM telemetry t
		LEFT JOIN agents a ON a.id = t.agent_id
		WHERE 1=1
	`
	var args []any
	if f.AgentID != "" {
		query += " AND t.agent_id = ?"
		args = append(args, f.AgentID)
	}
	if f.PlanID != "" {
		query += " AND a.plan_id = ?"
		args = append(args, f.PlanID)
	}
	if f.Provider != "" {
		query += " AND t.provider = ?"
		args = append(args, f.Provider)
	}
	if f.Model != "" {
		query += " AND t.model = ?"
		args = append(args, f.Model)
	}
	if !f.Since.IsZero() {
		query += " AND t.ts >= ?"
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		query += " AND t.ts <= ?"
		args = append(args, f.Until)
	}
	query += " ORDER BY t.ts DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var model, provider, toolName, toolArgs, engineID, apiKeyID, team, project, costCenter sql.NullString
		if err := rows.Scan(
			&r.AgentID, &r.Timestamp, &r.Usage.InputTokens, &r.Usage.OutputTokens, &r.Usage.CachedTokens,
			&r.Usage.CacheCreationTokens, &r.Usage.CacheReadTokens,
			&r.estimatedCost, &model, &provider, &toolName, &toolArgs,
			&engineID, &apiKeyID, &team, &project, &costCenter,
		); err != nil {
			return nil, fmt.Errorf("telemetry: scan: %w", err)
		}
		r.costComputed = true
		r.Model, r.Provider, r.ToolName, r.ToolArgs = model.String, provider.String, toolName.String, toolArgs.String
		r.EngineID = engineID.String
		r.Attribution = Attribution{APIKeyID: apiKeyID.String, Team: team.String, Project: project.String, CostCenter: costCenter.String}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
