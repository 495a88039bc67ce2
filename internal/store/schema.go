package store

// schemaVersion is the target schema version for this build. There is no
// legacy schema to migrate from — the version table exists so a future
// release can add a migrateVNToVN+1 dispatch the way the schema this
// package is grounded on does.
const schemaVersion = 1

// schema is the fresh-install DDL: an append-only events table that is the
// journal (C7), and an artifacts table that is the Artifact Store (C5).
// iteration_id + seq is the journal's monotonic per-iteration ordering;
// iteration_id + artifact_type_id + is_current models "at most one current
// instance per (iterationId, artifactTypeId); older instances retained as
// history" from spec.md §3.
var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS events (
	iteration_id TEXT    NOT NULL,
	seq          INTEGER NOT NULL,
	kind         TEXT    NOT NULL,
	payload      TEXT    NOT NULL,
	created_at   TEXT    NOT NULL,
	UNIQUE(iteration_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_events_iteration ON events(iteration_id, seq);

CREATE TABLE IF NOT EXISTS artifacts (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	iteration_id       TEXT    NOT NULL,
	artifact_type_id   TEXT    NOT NULL,
	payload            TEXT    NOT NULL,
	produced_by_edge_id TEXT   NOT NULL,
	retry_count        INTEGER NOT NULL DEFAULT 0,
	quality_score      REAL,
	is_current         INTEGER NOT NULL DEFAULT 1,
	created_at         TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_current
	ON artifacts(iteration_id, artifact_type_id, is_current);
`
