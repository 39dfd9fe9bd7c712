package app

import (
	"fmt"
	"time"

	"github.com/chrissnell/shiftline/internal/database"
	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/pkg/config"
	"go.uber.org/zap"
)

// CSVColumns converts configured header names for the CSV loader.
func CSVColumns(c config.CSVColumnsData) ingest.Columns {
	return ingest.Columns{
		Subject:      c.Subject,
		ResourceID:   c.ResourceID,
		ResourceName: c.ResourceName,
		Group:        c.Group,
		Operation:    c.Operation,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		Date:         c.Date,
	}
}

// NewCSVLoader builds a loader from the csv section of the configuration.
func NewCSVLoader(c config.CSVSourceData, loc *time.Location, logger *zap.SugaredLogger) *ingest.CSVLoader {
	var delimiter rune
	if r := []rune(c.Delimiter); len(r) == 1 {
		delimiter = r[0]
	}
	return ingest.NewCSVLoader(CSVColumns(c.Columns), delimiter, loc, logger)
}

// OpenSource opens the configured activity source. The returned close function
// is never nil.
func OpenSource(sd config.SourceData, loc *time.Location, logger *zap.SugaredLogger) (ingest.Source, func() error, error) {
	noop := func() error { return nil }
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := sd.Validate(); err != nil {
		return nil, noop, err
	}

	switch sd.Type {
	case config.SourceCSV:
		events, diag, err := NewCSVLoader(*sd.CSV, loc, logger).LoadFile(sd.CSV.Path)
		if err != nil {
			return nil, noop, err
		}
		if n := diag.DroppedCount(); n > 0 {
			logger.Warnw("dropped unreadable activity rows", "path", sd.CSV.Path, "dropped", n)
		}
		return ingest.NewMemorySourceWithDiagnostics(events, diag), noop, nil

	case config.SourcePostgres:
		src, err := database.Open(sd.Postgres.ConnectionString, loc, logger)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	}
	return nil, noop, fmt.Errorf("unsupported source type %q", sd.Type)
}
