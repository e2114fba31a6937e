package sqlite

import "database/sql"

// schema sets up the kv_store table that holds the three opaque values the
// engine reads and writes (spec §6; rows are created on first write) plus the
// relational users table the auth layer needs. kv_store
// rows are never queried by key prefix or joined against — the engine treats
// each value as an opaque blob, per spec §6's "values are opaque to the
// host" contract; JSON is merely this implementation's serialization choice.
const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    display_name  TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
