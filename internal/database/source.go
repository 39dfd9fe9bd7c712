package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/internal/timeline"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the PostgreSQL schema migrations for activity_events.
func MigrationsFS() embed.FS {
	return migrationsFS
}

// Source serves activity rows from the activity_events table.
type Source struct {
	db       *gorm.DB
	location *time.Location
	logger   *zap.SugaredLogger
}

var _ ingest.Source = (*Source)(nil)

// NewSource wraps an open gorm connection. Row times are returned in loc.
func NewSource(db *gorm.DB, loc *time.Location, logger *zap.SugaredLogger) *Source {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Source{db: db, location: loc, logger: logger}
}

// Open connects to connectionString and returns a Source over it.
func Open(connectionString string, loc *time.Location, logger *zap.SugaredLogger) (*Source, error) {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}
	return NewSource(db, loc, logger), nil
}

// Subjects implements ingest.Source.
func (s *Source) Subjects(ctx context.Context) ([]string, error) {
	var subjects []string
	err := s.db.WithContext(ctx).
		Model(&ActivityRow{}).
		Distinct().
		Where("subject_id <> ''").
		Order("subject_id").
		Pluck("subject_id", &subjects).Error
	if err != nil {
		return nil, fmt.Errorf("error querying subjects: %w", err)
	}
	return subjects, nil
}

// eventsQuery selects the rows of subject that may overlap [from, to).
func (s *Source) eventsQuery(tx *gorm.DB, subject string, from, to time.Time) *gorm.DB {
	q := tx.Model(&ActivityRow{}).Where("subject_id = ?", subject)
	if !from.IsZero() {
		q = q.Where("start_at >= ?", from.Add(-ingest.Lookback))
	}
	if !to.IsZero() {
		q = q.Where("start_at < ?", to)
	}
	return q.Order("start_at").Order("id")
}

// Events implements ingest.Source.
func (s *Source) Events(ctx context.Context, subject string, from, to time.Time) ([]timeline.RawEvent, error) {
	var rows []ActivityRow
	if err := s.eventsQuery(s.db.WithContext(ctx), subject, from, to).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying activity rows for %s: %w", subject, err)
	}

	events := make([]timeline.RawEvent, len(rows))
	for i, r := range rows {
		events[i] = r.RawEvent(s.location)
	}
	s.logger.Debugw("fetched activity rows", "subject", subject, "rows", len(events))
	return events, nil
}

// LoadDiagnostics implements ingest.Source. Rows are validated when they are
// imported, so the table never holds rejected rows.
func (s *Source) LoadDiagnostics(ctx context.Context) (timeline.Diagnostics, error) {
	return timeline.Diagnostics{}, ctx.Err()
}

// Insert stores events in batches.
func (s *Source) Insert(ctx context.Context, events []timeline.RawEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]ActivityRow, len(events))
	for i, e := range events {
		rows[i] = NewActivityRow(e)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("error inserting activity rows: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Source) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
