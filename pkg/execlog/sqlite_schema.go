package execlog

// schemaVersion is bumped on any incompatible schema change.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS execution_log (
	id               TEXT PRIMARY KEY,
	rule_code        TEXT NOT NULL,
	rule_name        TEXT NOT NULL,
	started_at       INTEGER NOT NULL,
	finished_at      INTEGER NOT NULL,
	duration_us      INTEGER NOT NULL,
	status           TEXT NOT NULL,
	result           TEXT,
	error            TEXT,
	executor         TEXT,
	environment      TEXT,
	rule_version     INTEGER NOT NULL,
	rule_set_version INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_execution_log_rule_code ON execution_log(rule_code);
CREATE INDEX IF NOT EXISTS idx_execution_log_started_at ON execution_log(started_at);
CREATE INDEX IF NOT EXISTS idx_execution_log_status ON execution_log(status);
`
