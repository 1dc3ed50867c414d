package tracker

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// SchemaVersion is the current schema version
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    env_id TEXT NOT NULL,
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS episodes (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    episode INTEGER NOT NULL,
    steps INTEGER NOT NULL,
    return REAL NOT NULL,
    epsilon REAL NOT NULL,
    loss REAL NOT NULL,
    learns INTEGER NOT NULL,
    phase TEXT NOT NULL,
    PRIMARY KEY (run_id, episode)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// initSchema creates the schema of a new database and checks the
// version of an existing one
func initSchema(ctx context.Context, db *sql.DB) error {
	version, err := schemaVersion(ctx, db)
	if err != nil {
		return createSchema(ctx, db)
	}

	if version > SchemaVersion {
		return errors.Errorf("initSchema: database schema version %d is "+
			"newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

// schemaVersion returns an error if the schema_version table doesn't
// exist
func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_version`).Scan(&version)
	return version, err
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "createSchema: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return errors.Wrap(err, "createSchema: create tables")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return errors.Wrap(err, "createSchema: record version")
	}

	return tx.Commit()
}
