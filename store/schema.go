package store

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT    NOT NULL,
	created_at   TEXT    NOT NULL,
	chains       INTEGER NOT NULL,
	iterations   INTEGER NOT NULL,
	labels       TEXT    NOT NULL,
	horizon      REAL    NOT NULL,
	observations INTEGER NOT NULL,
	dataset      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS draws (
	run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	chain     INTEGER NOT NULL,
	iteration INTEGER NOT NULL,
	vals      TEXT    NOT NULL,
	PRIMARY KEY (run_id, chain, iteration)
);

CREATE TABLE IF NOT EXISTS predictive (
	run_id  INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	method  TEXT    NOT NULL,
	horizon REAL    NOT NULL,
	draw    INTEGER NOT NULL,
	vals    TEXT    NOT NULL,
	PRIMARY KEY (run_id, method, draw)
);
`
