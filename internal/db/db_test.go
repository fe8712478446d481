package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM audit_entries").Scan(&count); err != nil {
		t.Errorf("audit_entries: %v", err)
	}
	if d.Path() != ":memory:" {
		t.Errorf("Path() = %q", d.Path())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO audit_entries (id, timestamp, action) VALUES ('a', '2026-01-01 00:00:00.000000', 'x')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Close()

	// Reopening keeps the data and re-applies the schema without error.
	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM audit_entries").Scan(&count); err != nil || count != 1 {
		t.Errorf("count = %d, err = %v; want 1", count, err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}
