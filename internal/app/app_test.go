package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/shiftline/internal/timeline"
	"github.com/chrissnell/shiftline/pkg/config"
)

const rowsCSV = `Nome;Grupo;Operação;Início;Fim;Data
JOAO;PRODUTIVA;PLANTIO;08:00;12:00;01/01/2024
MARIA;PRODUTIVA;COLHEITA;25:00;12:00;01/01/2024
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func csvSource(path string) config.SourceData {
	return config.SourceData{
		Type: config.SourceCSV,
		CSV: &config.CSVSourceData{
			Path:      path,
			Delimiter: ";",
			Columns: config.CSVColumnsData{
				Group:     "Grupo",
				Operation: "Operação",
				StartTime: "Início",
				EndTime:   "Fim",
				Date:      "Data",
			},
		},
	}
}

func TestOpenSourceCSV(t *testing.T) {
	path := writeTemp(t, "rows.csv", rowsCSV)

	src, closeSource, err := OpenSource(csvSource(path), time.UTC, nil)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer closeSource()

	subjects, err := src.Subjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 1 || subjects[0] != "JOAO" {
		t.Errorf("the row with an invalid hour should be dropped, got subjects %v", subjects)
	}

	diag, err := src.LoadDiagnostics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	maria := diag.ForSubject("MARIA")
	if maria.Dropped[timeline.DropMalformedTimestamp] != 1 {
		t.Errorf("the dropped row should stay visible to callers, got %+v", diag)
	}
}

func TestOpenSourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source config.SourceData
	}{
		{"missing type", config.SourceData{}},
		{"missing file", csvSource(filepath.Join(t.TempDir(), "absent.csv"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, closeSource, err := OpenSource(tt.source, nil, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if closeSource == nil || closeSource() != nil {
				t.Error("close function should be a usable no-op")
			}
		})
	}
}

func TestSetup(t *testing.T) {
	csvPath := writeTemp(t, "rows.csv", rowsCSV)
	yamlPath := writeTemp(t, "shiftline.yaml", `timeline:
  gap-threshold-minutes: 5
source:
  type: csv
  csv:
    path: `+csvPath+`
    delimiter: ";"
    columns:
      group: Grupo
      operation: Operação
      start-time: Início
      end-time: Fim
      date: Data
server:
  port: 9090
`)

	a := New(config.NewYAMLProvider(yamlPath), nil)
	c, err := a.setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if c.pipeline.Config().GapThreshold != 5*time.Minute {
		t.Errorf("gap threshold = %v", c.pipeline.Config().GapThreshold)
	}
	if c.server.Port != 9090 {
		t.Errorf("port = %d", c.server.Port)
	}

	events, err := c.source.Events(context.Background(), "JOAO", time.Time{}, time.Time{})
	if err != nil || len(events) != 1 {
		t.Fatalf("events = %+v, %v", events, err)
	}
}

func TestSetupRejectsInvalidTimeline(t *testing.T) {
	yamlPath := writeTemp(t, "shiftline.yaml", `timeline:
  night-evening-start-hour: 3
source:
  type: csv
  csv:
    path: rows.csv
`)
	_, err := New(config.NewYAMLProvider(yamlPath), nil).setup()
	if !errors.Is(err, timeline.ErrInvalidNightHours) {
		t.Errorf("expected ErrInvalidNightHours, got %v", err)
	}
}
