package database

import (
	"path/filepath"
	"testing"
)

func TestRunMigrationsTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	conn, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	m := NewMigrationManager(conn, "")
	for i := 0; i < 2; i++ {
		if err := m.RunMigrations(); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != len(Schema) {
		t.Errorf("expected %d applied migrations, got %d", len(Schema), len(applied))
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	rw, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := NewMigrationManager(rw, "").RunMigrations(); err != nil {
		t.Fatal(err)
	}
	rw.Close()

	ro, err := Open(Config{Path: path, ReadOnly: true})
	if err != nil {
		t.Fatalf("Open read-only: %v", err)
	}
	defer ro.Close()

	if _, err := ro.Exec("INSERT INTO checkins (subject) VALUES ('x')"); err == nil {
		t.Error("expected write on read-only database to fail")
	}
	var n int
	if err := ro.QueryRow("SELECT COUNT(*) FROM checkins").Scan(&n); err != nil || n != 0 {
		t.Errorf("expected empty readable table, got n=%d err=%v", n, err)
	}
}
