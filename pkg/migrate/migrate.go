// Package migrate applies versioned SQL scripts to the configuration store
// and to the activity_events schema.
package migrate

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Latest is the MigrateTo target meaning the highest known version.
const Latest = -1

var (
	// ErrNoScript is returned when a step has no SQL for its direction.
	ErrNoScript = errors.New("migration has no script")

	// ErrTarget is returned for a target the schema cannot move to.
	ErrTarget = errors.New("invalid target version")
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Direction says whether a step applies or reverts its migration.
type Direction bool

const (
	Up   Direction = true
	Down Direction = false
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Script returns the SQL the migration runs in direction d.
func (m Migration) Script(d Direction) string {
	if d == Up {
		return m.Up
	}
	return m.Down
}

// versionAfter is the schema version recorded once m has run in direction d.
func (m Migration) versionAfter(d Direction) int {
	if d == Up {
		return m.Version
	}
	return m.Version - 1
}

// DB represents either a database connection or transaction
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MigrationProvider defines how migrations are loaded and managed
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
	GetCurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
	CreateMigrationTable(db *sql.DB) error
}

// Error describes a failed step. Schema is the label set with WithSchema.
type Error struct {
	Schema    string
	Version   int
	Name      string
	Direction Direction
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s migration %d (%s) %s: %v", e.Schema, e.Version, e.Name, e.Direction, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Step is one migration to run in one direction.
type Step struct {
	Migration
	Direction Direction
}

// Plan lists the steps that move a schema from current to target, in the
// order they must run. Latest targets the highest version in migrations.
func Plan(migrations []Migration, current, target int) ([]Step, error) {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	if target == Latest {
		target = 0
		if n := len(sorted); n > 0 {
			target = sorted[n-1].Version
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: %d", ErrTarget, target)
	}

	var steps []Step
	if target >= current {
		for _, m := range sorted {
			if m.Version > current && m.Version <= target {
				steps = append(steps, Step{Migration: m, Direction: Up})
			}
		}
		return steps, nil
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if m := sorted[i]; m.Version > target && m.Version <= current {
			steps = append(steps, Step{Migration: m, Direction: Down})
		}
	}
	return steps, nil
}

// Migrator handles the execution of migrations
type Migrator struct {
	db       *sql.DB
	provider MigrationProvider
	schema   string
	logger   *zap.SugaredLogger
}

// NewMigrator creates a new migrator instance. Applied migrations are not
// logged until a logger is set with WithLogger.
func NewMigrator(db *sql.DB, provider MigrationProvider) *Migrator {
	return &Migrator{
		db:       db,
		provider: provider,
		schema:   "schema",
		logger:   zap.NewNop().Sugar(),
	}
}

// WithLogger makes the migrator report every migration it applies to l.
func (m *Migrator) WithLogger(l *zap.SugaredLogger) *Migrator {
	if l != nil {
		m.logger = l
	}
	return m
}

// WithSchema names the schema in logs and errors, e.g. "config" or "activity_events".
func (m *Migrator) WithSchema(name string) *Migrator {
	if name != "" {
		m.schema = name
	}
	return m
}

// MigrateUp runs all pending migrations up to the latest version
func (m *Migrator) MigrateUp() error {
	return m.MigrateTo(Latest)
}

// MigrateDown reverts migrations until targetVersion is current. The target
// must be below the current version.
func (m *Migrator) MigrateDown(targetVersion int) error {
	current, err := m.GetCurrentVersion()
	if err != nil {
		return err
	}
	if targetVersion >= current {
		return fmt.Errorf("%w: %s rollback target %d must be below current version %d",
			ErrTarget, m.schema, targetVersion, current)
	}
	return m.migrate(current, targetVersion)
}

// MigrateTo runs migrations up or down to reach targetVersion.
func (m *Migrator) MigrateTo(targetVersion int) error {
	current, err := m.GetCurrentVersion()
	if err != nil {
		return err
	}
	return m.migrate(current, targetVersion)
}

func (m *Migrator) migrate(current, target int) error {
	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("loading %s migrations: %w", m.schema, err)
	}
	steps, err := Plan(migrations, current, target)
	if err != nil {
		return err
	}
	for _, s := range steps {
		if err := m.run(s); err != nil {
			return &Error{Schema: m.schema, Version: s.Version, Name: s.Name, Direction: s.Direction, Err: err}
		}
		m.logger.Infow("applied migration", "schema", m.schema, "version", s.Version, "name", s.Name, "direction", s.Direction.String())
	}
	return nil
}

// GetCurrentVersion returns the current migration version, creating the
// tracking table on first use.
func (m *Migrator) GetCurrentVersion() (int, error) {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return 0, fmt.Errorf("preparing %s migration table: %w", m.schema, err)
	}
	v, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("reading %s version: %w", m.schema, err)
	}
	return v, nil
}

// GetPendingMigrations returns migrations that haven't been applied yet
func (m *Migrator) GetPendingMigrations() ([]Migration, error) {
	current, err := m.GetCurrentVersion()
	if err != nil {
		return nil, err
	}
	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return nil, fmt.Errorf("loading %s migrations: %w", m.schema, err)
	}
	steps, err := Plan(migrations, current, Latest)
	if err != nil {
		return nil, err
	}
	pending := make([]Migration, 0, len(steps))
	for _, s := range steps {
		pending = append(pending, s.Migration)
	}
	return pending, nil
}

// run executes one step and records the resulting version in the same transaction.
func (m *Migrator) run(s Step) error {
	script := s.Script(s.Direction)
	if script == "" {
		return ErrNoScript
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if err := m.provider.SetVersion(tx, s.versionAfter(s.Direction)); err != nil {
		return err
	}
	return tx.Commit()
}

// SetVersion records version without running any script.
func (m *Migrator) SetVersion(version int) error {
	return m.provider.SetVersion(m.db, version)
}

// Status summarizes where the database stands.
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

// Status reports the current version, the latest available one and the
// migrations still to apply.
func (m *Migrator) Status() (Status, error) {
	pending, err := m.GetPendingMigrations()
	if err != nil {
		return Status{}, err
	}
	current, err := m.provider.GetCurrentVersion(m.db)
	if err != nil {
		return Status{}, err
	}
	st := Status{Current: current, Latest: current, Pending: pending}
	if len(pending) > 0 {
		st.Latest = pending[len(pending)-1].Version
	}
	return st, nil
}
