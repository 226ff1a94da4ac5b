package store

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitSchema_Fresh(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"keywords", "keyword_related", "keyword_examples", "connections", "metadata"} {
		if len(getColumns(t, db, table)) == 0 {
			t.Errorf("table %s not created", table)
		}
	}

	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("get schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}

	// Idempotent
	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestInitSchema_UnversionedDB(t *testing.T) {
	// Tables exist but no version was ever recorded.
	db := openMemDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE keywords (id TEXT PRIMARY KEY, frequency REAL);
		CREATE TABLE schema_version (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
	`); err != nil {
		t.Fatalf("create tables: %v", err)
	}

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	if !getColumns(t, db, "connections")["strength"] {
		t.Error("connections table was not created by migration")
	}
	if v, _ := getSchemaVersion(ctx, db); v != SchemaVersion {
		t.Errorf("schema version = %d, want %d", v, SchemaVersion)
	}
}

func TestInitSchema_NewerVersionRejected(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, 'x')`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(ctx, db); err == nil {
		t.Error("expected error for a newer schema version")
	}
}

func TestValidateIntegrity_ForeignKeyViolation(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if err := ValidateIntegrity(ctx, db); err != nil {
		t.Fatalf("fresh db failed integrity: %v", err)
	}

	// foreign_keys is off on this connection, so the orphan is accepted.
	if _, err := db.ExecContext(ctx, `INSERT INTO keyword_related (keyword_id, position, related_id) VALUES ('ghost', 0, 'x')`); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}
	if err := ValidateIntegrity(ctx, db); err == nil {
		t.Error("expected foreign_key_check failure")
	}
}

func TestResetSchema(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO keywords (id) VALUES ('a')`); err != nil {
		t.Fatal(err)
	}
	if err := ResetSchema(ctx, db); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("keywords after reset = %d, want 0", n)
	}
}

func getColumns(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("PRAGMA table_info(%s): %v", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols[name] = true
	}
	return cols
}
