package migrate

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"m/001_create_items.up.sql":   {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)`)},
		"m/001_create_items.down.sql": {Data: []byte(`DROP TABLE items`)},
		"m/002_add_owner.up.sql":      {Data: []byte(`ALTER TABLE items ADD COLUMN owner TEXT`)},
		"m/002_add_owner.down.sql":    {Data: []byte(`CREATE TABLE items_old AS SELECT id, name FROM items; DROP TABLE items; ALTER TABLE items_old RENAME TO items`)},
		"m/README.md":                 {Data: []byte("not a migration")},
		"m/003_create_orphans.up.sql": {Data: []byte(`CREATE TABLE orphans (id INTEGER)`)},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testFS(), "m", "", "").GetMigrations()
	if err != nil {
		t.Fatalf("GetMigrations: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	for i, want := range []int{1, 2, 3} {
		if migrations[i].Version != want {
			t.Errorf("migration %d has version %d", i, migrations[i].Version)
		}
	}
	if migrations[0].Name != "create items" || migrations[0].Down == "" {
		t.Errorf("unexpected first migration %+v", migrations[0])
	}
	if migrations[2].Down != "" {
		t.Error("migration 3 has no down file")
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", "test_migrations", "sqlite"))

	if err := m.MigrateTo(2); err != nil {
		t.Fatalf("MigrateTo(2): %v", err)
	}
	version, err := m.GetCurrentVersion()
	if err != nil || version != 2 {
		t.Fatalf("version = %d, %v", version, err)
	}
	if _, err := db.Exec(`INSERT INTO items (name, owner) VALUES ('a', 'b')`); err != nil {
		t.Errorf("owner column should exist: %v", err)
	}

	pending, err := m.GetPendingMigrations()
	if err != nil || len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pending = %+v, %v", pending, err)
	}

	if err := m.MigrateDown(1); err != nil {
		t.Fatalf("MigrateDown(1): %v", err)
	}
	if version, _ := m.GetCurrentVersion(); version != 1 {
		t.Errorf("version after rollback = %d, want 1", version)
	}
	if _, err := db.Exec(`INSERT INTO items (name, owner) VALUES ('a', 'b')`); err == nil {
		t.Error("owner column should be gone after rollback")
	}

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if version, _ := m.GetCurrentVersion(); version != 3 {
		t.Errorf("version after MigrateUp = %d, want 3", version)
	}
}

func TestMigrateDownRejectsHigherTarget(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", "", ""))
	if err := m.MigrateTo(1); err != nil {
		t.Fatal(err)
	}
	if err := m.MigrateDown(2); err == nil {
		t.Error("expected an error rolling down to a higher version")
	}
}

func TestStatus(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", "", ""))
	if err := m.MigrateTo(1); err != nil {
		t.Fatal(err)
	}
	st, err := m.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.Current != 1 || st.Latest != 3 || len(st.Pending) != 2 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestPlan(t *testing.T) {
	migrations := []Migration{{Version: 3}, {Version: 1}, {Version: 2}}

	type step struct {
		version int
		dir     Direction
	}
	tests := []struct {
		name    string
		current int
		target  int
		want    []step
		wantErr error
	}{
		{"fresh schema to latest", 0, Latest, []step{{1, Up}, {2, Up}, {3, Up}}, nil},
		{"partial upgrade", 1, 2, []step{{2, Up}}, nil},
		{"already current", 3, Latest, nil, nil},
		{"rollback runs newest first", 3, 1, []step{{3, Down}, {2, Down}}, nil},
		{"rollback to empty", 2, 0, []step{{2, Down}, {1, Down}}, nil},
		{"negative target", 1, -5, nil, ErrTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := Plan(migrations, tt.current, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(steps) != len(tt.want) {
				t.Fatalf("steps = %+v, want %+v", steps, tt.want)
			}
			for i, w := range tt.want {
				if steps[i].Version != w.version || steps[i].Direction != w.dir {
					t.Errorf("step %d = %d %s, want %d %s", i, steps[i].Version, steps[i].Direction, w.version, w.dir)
				}
			}
		})
	}

	if migrations[0].Version != 3 {
		t.Error("Plan must not reorder its input")
	}
}

func TestMigrateErrorNamesSchemaAndStep(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", "", "")).WithSchema("activity_events")
	if err := m.MigrateUp(); err != nil {
		t.Fatal(err)
	}

	err := m.MigrateTo(2)
	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if merr.Schema != "activity_events" || merr.Version != 3 || merr.Direction != Down || !errors.Is(err, ErrNoScript) {
		t.Errorf("unexpected error %+v", merr)
	}
	if version, _ := m.GetCurrentVersion(); version != 3 {
		t.Errorf("a failed step must leave the version alone, got %d", version)
	}
}
