package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "dreamdoor.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "dreamdoor.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "dreamdoor.db")
				d, err := Open(path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)

	var fk int
	if err := d.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name  string
		table string
		cols  []string
	}{
		{
			name:  "houses table exists",
			table: "houses",
			cols: []string{"id", "source", "external_id", "status", "property_type", "sub_type",
				"price", "beds", "baths", "sqft", "lot_sqft", "address_line", "city", "state", "postal_code",
				"lat", "lng", "list_date", "last_sold_date", "primary_photo_url", "created_at", "updated_at", "geohash"},
		},
		{
			name:  "house_details table exists",
			table: "house_details",
			cols:  []string{"id", "house_id", "payload", "fetched_at"},
		},
		{
			name:  "house_photos table exists",
			table: "house_photos",
			cols:  []string{"id", "house_id", "payload", "fetched_at"},
		},
		{
			name:  "house_import_errors table exists",
			table: "house_import_errors",
			cols:  []string{"id", "house_id", "external_id", "import_type", "error_message", "created_at", "run_id"},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := migrate(d); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if got := len(tableColumns(t, d, "houses")); got != 23 {
		t.Errorf("houses has %d columns after re-migrate, want 23", got)
	}
}

func TestHouseIdentityUnique(t *testing.T) {
	d := openTestDB(t)

	insert := `INSERT INTO houses (source, external_id) VALUES (?, ?)`
	if _, err := d.Exec(insert, "realty_in_us", "1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := d.Exec(insert, "other", "1"); err != nil {
		t.Fatalf("same id from another source: %v", err)
	}
	if _, err := d.Exec(insert, "realty_in_us", "1"); err == nil {
		t.Error("expected unique violation for duplicate (source, external_id)")
	}
}

func TestOneEnrichmentRowPerHouse(t *testing.T) {
	d := openTestDB(t)
	houseID := insertHouse(t, d, "1")

	for _, table := range []string{"house_details", "house_photos"} {
		t.Run(table, func(t *testing.T) {
			insert := fmt.Sprintf(`INSERT INTO %s (house_id, payload) VALUES (?, ?)`, table)
			if _, err := d.Exec(insert, houseID, "{}"); err != nil {
				t.Fatalf("first insert: %v", err)
			}
			if _, err := d.Exec(insert, houseID, "{}"); err == nil {
				t.Error("expected unique violation on house_id")
			}
		})
	}
}

func TestDeleteHouse(t *testing.T) {
	d := openTestDB(t)
	houseID := insertHouse(t, d, "cascade")

	if _, err := d.Exec(`INSERT INTO house_details (house_id, payload) VALUES (?, '{}')`, houseID); err != nil {
		t.Fatalf("insert detail: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO house_photos (house_id, payload) VALUES (?, '[]')`, houseID); err != nil {
		t.Fatalf("insert photos: %v", err)
	}
	if _, err := d.Exec(
		`INSERT INTO house_import_errors (house_id, external_id, import_type, error_message) VALUES (?, ?, ?, ?)`,
		houseID, "cascade", "photos", "boom",
	); err != nil {
		t.Fatalf("insert import error: %v", err)
	}

	if _, err := d.Exec(`DELETE FROM houses WHERE id = ?`, houseID); err != nil {
		t.Fatalf("delete house: %v", err)
	}

	for _, table := range []string{"house_details", "house_photos"} {
		var count int
		if err := d.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s: expected cascade delete, got %d rows", table, count)
		}
	}

	var linked sql.NullInt64
	var externalID string
	if err := d.QueryRow(`SELECT house_id, external_id FROM house_import_errors`).Scan(&linked, &externalID); err != nil {
		t.Fatalf("query import error: %v", err)
	}
	if linked.Valid {
		t.Errorf("house_id = %d, want NULL after house delete", linked.Int64)
	}
	if externalID != "cascade" {
		t.Errorf("external_id = %q, want it kept", externalID)
	}
}

func TestIsPostgresDSN(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"postgres://user@localhost/dreamdoor", true},
		{"postgresql://localhost:5432/dreamdoor?sslmode=disable", true},
		{"/home/me/.dreamdoor/dreamdoor.db", false},
		{"dreamdoor.db", false},
	}

	for _, tt := range tests {
		if got := IsPostgresDSN(tt.target); got != tt.want {
			t.Errorf("IsPostgresDSN(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func insertHouse(t *testing.T, d *sql.DB, externalID string) int64 {
	t.Helper()
	res, err := d.Exec(`INSERT INTO houses (source, external_id) VALUES (?, ?)`, "realty_in_us", externalID)
	if err != nil {
		t.Fatalf("insert house: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}

// openTestDB opens a fresh database in a temp directory.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
