package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS houses (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		source            TEXT    NOT NULL,
		external_id       TEXT    NOT NULL,
		status            TEXT    NOT NULL DEFAULT '',
		property_type     TEXT    NOT NULL DEFAULT '',
		sub_type          TEXT    NOT NULL DEFAULT '',
		price             INTEGER,
		beds              INTEGER,
		baths             REAL,
		sqft              INTEGER,
		lot_sqft          INTEGER,
		address_line      TEXT    NOT NULL DEFAULT '',
		city              TEXT    NOT NULL DEFAULT '',
		state             TEXT    NOT NULL DEFAULT '',
		postal_code       TEXT    NOT NULL DEFAULT '',
		lat               REAL,
		lng               REAL,
		list_date         DATETIME,
		last_sold_date    TEXT,
		primary_photo_url TEXT    NOT NULL DEFAULT '',
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (source, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_houses_postal_code ON houses(postal_code)`,
	`CREATE TABLE IF NOT EXISTS house_details (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		house_id   INTEGER NOT NULL UNIQUE REFERENCES houses(id) ON DELETE CASCADE,
		payload    TEXT    NOT NULL DEFAULT '{}',
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS house_photos (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		house_id   INTEGER NOT NULL UNIQUE REFERENCES houses(id) ON DELETE CASCADE,
		payload    TEXT    NOT NULL DEFAULT '[]',
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS house_import_errors (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		house_id      INTEGER REFERENCES houses(id) ON DELETE SET NULL,
		external_id   TEXT    NOT NULL DEFAULT '',
		import_type   TEXT    NOT NULL,
		error_message TEXT    NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"houses", "geohash", "TEXT NOT NULL DEFAULT ''"},
		{"house_import_errors", "run_id", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	exists, err := hasColumn(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func hasColumn(db *sql.DB, table, column string) (found bool, err error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}

	return found, nil
}

// postgresMigrations mirrors the SQLite schema with native types.
var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS houses (
		id                BIGSERIAL PRIMARY KEY,
		source            TEXT NOT NULL,
		external_id       TEXT NOT NULL,
		status            TEXT NOT NULL DEFAULT '',
		property_type     TEXT NOT NULL DEFAULT '',
		sub_type          TEXT NOT NULL DEFAULT '',
		price             BIGINT,
		beds              BIGINT,
		baths             DOUBLE PRECISION,
		sqft              BIGINT,
		lot_sqft          BIGINT,
		address_line      TEXT NOT NULL DEFAULT '',
		city              TEXT NOT NULL DEFAULT '',
		state             TEXT NOT NULL DEFAULT '',
		postal_code       TEXT NOT NULL DEFAULT '',
		lat               DOUBLE PRECISION,
		lng               DOUBLE PRECISION,
		list_date         TIMESTAMPTZ,
		last_sold_date    DATE,
		primary_photo_url TEXT NOT NULL DEFAULT '',
		geohash           TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (source, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_houses_postal_code ON houses(postal_code)`,
	`CREATE TABLE IF NOT EXISTS house_details (
		id         BIGSERIAL PRIMARY KEY,
		house_id   BIGINT NOT NULL UNIQUE REFERENCES houses(id) ON DELETE CASCADE,
		payload    JSONB  NOT NULL DEFAULT '{}',
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS house_photos (
		id         BIGSERIAL PRIMARY KEY,
		house_id   BIGINT NOT NULL UNIQUE REFERENCES houses(id) ON DELETE CASCADE,
		payload    JSONB  NOT NULL DEFAULT '[]',
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS house_import_errors (
		id            BIGSERIAL PRIMARY KEY,
		house_id      BIGINT REFERENCES houses(id) ON DELETE SET NULL,
		external_id   TEXT NOT NULL DEFAULT '',
		import_type   TEXT NOT NULL,
		error_message TEXT NOT NULL,
		run_id        TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// migratePostgres runs the PostgreSQL migrations in order.
func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for i, m := range postgresMigrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
