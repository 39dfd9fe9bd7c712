package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chrissnell/shiftline/internal/timeline"
	"github.com/chrissnell/shiftline/pkg/textfold"
	"go.uber.org/zap"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Columns names the header of each field. Matching ignores case, accents and spacing.
type Columns struct {
	Subject      string
	ResourceID   string
	ResourceName string
	Group        string
	Operation    string
	StartTime    string
	EndTime      string
	Date         string
}

// DefaultColumns returns the header names of the activity sheet export.
func DefaultColumns() Columns {
	return Columns{
		Subject:      "Nome",
		ResourceID:   "Código Equipamento",
		ResourceName: "Descrição do Equipamento",
		Group:        "Descrição do Grupo da Operação",
		Operation:    "Descrição da Operação",
		StartTime:    "Hora Inicial",
		EndTime:      "Hora Final",
		Date:         "Data Hora Local",
	}
}

// WithDefaults fills empty names from DefaultColumns.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&c.Subject, d.Subject)
	fill(&c.ResourceID, d.ResourceID)
	fill(&c.ResourceName, d.ResourceName)
	fill(&c.Group, d.Group)
	fill(&c.Operation, d.Operation)
	fill(&c.StartTime, d.StartTime)
	fill(&c.EndTime, d.EndTime)
	fill(&c.Date, d.Date)
	return c
}

var clockLayouts = []string{"15:04:05", "15:04", "2006-01-02 15:04:05", "02/01/2006 15:04:05"}

var dateLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// CSVLoader reads activity rows from CSV.
type CSVLoader struct {
	columns   Columns
	delimiter rune
	location  *time.Location
	logger    *zap.SugaredLogger
}

// NewCSVLoader returns a loader for the given column names. Dates and clock
// times are read in loc; a nil loc means UTC. A zero delimiter means comma.
func NewCSVLoader(columns Columns, delimiter rune, loc *time.Location, logger *zap.SugaredLogger) *CSVLoader {
	if delimiter == 0 {
		delimiter = ','
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CSVLoader{
		columns:   columns.WithDefaults(),
		delimiter: delimiter,
		location:  loc,
		logger:    logger,
	}
}

type columnIndex struct {
	subject, resourceID, resourceName, group, operation, start, end, date int
}

func (l *CSVLoader) mapHeader(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if f := textfold.Fold(h); f != "" {
			if _, dup := positions[f]; !dup {
				positions[f] = i
			}
		}
	}

	find := func(name string, required bool) (int, error) {
		if i, ok := positions[textfold.Fold(name)]; ok {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return -1, nil
	}

	var idx columnIndex
	var err error
	required := []struct {
		dst  *int
		name string
	}{
		{&idx.subject, l.columns.Subject},
		{&idx.group, l.columns.Group},
		{&idx.operation, l.columns.Operation},
		{&idx.start, l.columns.StartTime},
		{&idx.end, l.columns.EndTime},
		{&idx.date, l.columns.Date},
	}
	for _, r := range required {
		if *r.dst, err = find(r.name, true); err != nil {
			return idx, err
		}
	}
	idx.resourceID, _ = find(l.columns.ResourceID, false)
	idx.resourceName, _ = find(l.columns.ResourceName, false)
	return idx, nil
}

// LoadFile opens path and calls Load.
func (l *CSVLoader) LoadFile(path string) ([]timeline.RawEvent, timeline.Diagnostics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, timeline.Diagnostics{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses every data row of r. Rows without a subject or with unreadable
// times are dropped and recorded in the returned Diagnostics; only an
// unreadable header or a broken stream fails the load.
func (l *CSVLoader) Load(r io.Reader) ([]timeline.RawEvent, timeline.Diagnostics, error) {
	var diag timeline.Diagnostics

	reader := csv.NewReader(r)
	reader.Comma = l.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, diag, fmt.Errorf("failed to read csv header: %w", err)
	}
	idx, err := l.mapHeader(header)
	if err != nil {
		return nil, diag, err
	}

	var events []timeline.RawEvent
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, diag, fmt.Errorf("failed to read csv row %d: %w", line, err)
		}

		field := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		subject := field(idx.subject)
		if subject == "" {
			diag.Drop(line, timeline.DropMissingSubject, "")
			continue
		}

		start, end, err := l.parseTimes(field(idx.date), field(idx.start), field(idx.end))
		if err != nil {
			diag.DropFor(subject, line, timeline.DropMalformedTimestamp, err.Error())
			continue
		}

		events = append(events, timeline.RawEvent{
			SubjectID:      subject,
			ResourceID:     field(idx.resourceID),
			ResourceName:   field(idx.resourceName),
			GroupLabel:     field(idx.group),
			OperationLabel: field(idx.operation),
			Start:          start,
			End:            end,
			Row:            line,
		})
	}

	l.logger.Infow("loaded activity rows", "rows", len(events), "dropped", diag.DroppedCount())
	return events, diag, nil
}

// parseTimes combines the calendar date of date with the clock times. The end
// is left on the same date even when it is earlier than the start; the
// pipeline's normalizer moves it to the next day.
func (l *CSVLoader) parseTimes(date, start, end string) (time.Time, time.Time, error) {
	day, err := ParseDate(date, l.location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	s, err := ParseClock(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return atClock(day, s), atClock(day, e), nil
}

// ParseDate reads a day-first or ISO date and returns midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", timeline.ErrMalformedTimestamp, s)
}

// ParseClock reads a time of day (HH:MM:SS or HH:MM) and returns it as an
// offset from midnight. Full timestamps contribute only their clock part.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			h, m, sec := t.Clock()
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: time %q", timeline.ErrMalformedTimestamp, s)
}

func atClock(day time.Time, clock time.Duration) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(clock)
}
