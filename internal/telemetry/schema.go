// Package telemetry implements §4.L: per-call usage records, rollups,
// attribution, and budget feedback, backed by an embedded relational
// store.
//
// Grounded on the teacher's internal/usage (Usage/Cost/Record/Tracker
// shapes, FormatTokenCount/FormatUSD) for the cost-estimation and
// formatting vocabulary, and internal/tasks/cockroach.go for the
// database/sql connection-pool and parameterized-query idiom — adapted
// from CockroachDB/lib/pq to modernc.org/sqlite, the pure-Go embedded
// store spec §9 calls for ("a local embedded relational store is
// sufficient").
package telemetry

const schemaSQL = `
CREATE TABLE IF NOT EXISTS agents (
	id        TEXT PRIMARY KEY,
	parent_id TEXT,
	plan_id   TEXT,
	type      TEXT NOT NULL,
	status    TEXT NOT NULL,
	pid       INTEGER,
	start     DATETIME NOT NULL,
	end       DATETIME,
	exit_code INTEGER,
	error     TEXT,
	log_path  TEXT
);

CREATE INDEX IF NOT EXISTS idx_agents_plan_id ON agents(plan_id);
CREATE INDEX IF NOT EXISTS idx_agents_status  ON agents(status);

CREATE TABLE IF NOT EXISTS telemetry (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id              TEXT NOT NULL,
	ts                    DATETIME NOT NULL,
	input_tokens          INTEGER NOT NULL DEFAULT 0,
	output_tokens         INTEGER NOT NULL DEFAULT 0,
	cached_tokens         INTEGER NOT NULL DEFAULT 0,
	cache_creation_tokens INTEGER NOT NULL DEFAULT 0,
	cache_read_tokens     INTEGER NOT NULL DEFAULT 0,
	total_tokens          INTEGER NOT NULL DEFAULT 0,
	estimated_cost        REAL NOT NULL DEFAULT 0,
	model                 TEXT,
	provider              TEXT,
	tool_name             TEXT,
	tool_args             TEXT,
	tool_approved         INTEGER,
	tool_approval_type    TEXT,
	engine_id             TEXT,
	api_key_id            TEXT,
	team                  TEXT,
	project               TEXT,
	cost_center           TEXT
);

CREATE INDEX IF NOT EXISTS idx_telemetry_agent_id ON telemetry(agent_id);
CREATE INDEX IF NOT EXISTS idx_telemetry_ts        ON telemetry(ts);
`
