package database

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newDryRunSource builds a Source whose statements are rendered but never sent.
func newDryRunSource(t *testing.T) *Source {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=shiftline dbname=shiftline sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return NewSource(db, time.UTC, nil)
}

func TestEventsQuery(t *testing.T) {
	s := newDryRunSource(t)
	from := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		want    []string
		notWant []string
	}{
		{
			name: "bounded window with lookback",
			from: from,
			to:   to,
			want: []string{`"activity_events"`, "subject_id = 'JOAO'", "start_at >= '2023-12-31 07:00:00", "start_at < '2024-01-02 07:00:00", "ORDER BY start_at"},
		},
		{
			name:    "unbounded",
			want:    []string{"subject_id = 'JOAO'", "ORDER BY start_at"},
			notWant: []string{"start_at >=", "start_at <"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := s.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				var rows []ActivityRow
				return s.eventsQuery(tx, "JOAO", tt.from, tt.to).Find(&rows)
			})
			for _, w := range tt.want {
				if !strings.Contains(sql, w) {
					t.Errorf("expected %q in %s", w, sql)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(sql, w) {
					t.Errorf("did not expect %q in %s", w, sql)
				}
			}
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{
		"migrations/001_create_activity_events.up.sql",
		"migrations/001_create_activity_events.down.sql",
	} {
		data, err := MigrationsFS().ReadFile(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(string(data), "activity_events") {
			t.Errorf("%s does not touch activity_events", name)
		}
	}
}
