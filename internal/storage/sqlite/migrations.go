package sqlite

import "database/sql"

// schema is applied on every startup; statements must stay idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS kv_snapshots (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
