// Command shiftline-report prints timeline reports for activity rows as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chrissnell/shiftline/internal/app"
	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/internal/log"
	"github.com/chrissnell/shiftline/internal/restserver"
	"github.com/chrissnell/shiftline/internal/timeline"
	"github.com/chrissnell/shiftline/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type options struct {
	configFile    string
	configBackend string
	csvFile       string
	subject       string
	date          string
	start         string
	end           string
	pretty        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "Path to configuration (optional; engine defaults otherwise)")
	flag.StringVar(&opts.configBackend, "config-backend", config.BackendYAML, "Configuration backend type: 'yaml' or 'sqlite'")
	flag.StringVar(&opts.csvFile, "csv", "", "CSV file of activity rows; overrides the configured source")
	flag.StringVar(&opts.subject, "subject", "", "Only report this subject")
	flag.StringVar(&opts.date, "date", "", "Operational date (2006-01-02 or 02/01/2006); defaults to the day before the latest")
	flag.StringVar(&opts.start, "start", "", "Window start, RFC 3339 (with -end)")
	flag.StringVar(&opts.end, "end", "", "Window end, RFC 3339 (with -start)")
	flag.BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), opts, os.Stdout, log.GetSugaredLogger()); err != nil {
		log.Errorf("report failed: %v", err)
		os.Exit(1)
	}
}

func loadSettings(opts options) (config.TimelineSettings, config.SourceData, error) {
	settings := config.DefaultTimelineSettings()
	var source config.SourceData

	if opts.configFile != "" {
		provider, err := config.OpenProvider(opts.configBackend, opts.configFile)
		if err != nil {
			return settings, source, err
		}
		defer provider.Close()
		cfg, err := provider.LoadConfig()
		if err != nil {
			return settings, source, fmt.Errorf("error loading configuration: %w", err)
		}
		settings, source = cfg.Timeline, cfg.Source
	}

	if opts.csvFile != "" {
		csv := &config.CSVSourceData{Path: opts.csvFile}
		if source.CSV != nil {
			csv.Delimiter = source.CSV.Delimiter
			csv.Columns = source.CSV.Columns
		}
		source = config.SourceData{Type: config.SourceCSV, CSV: csv}
	}
	return settings, source, nil
}

func run(ctx context.Context, opts options, out io.Writer, logger *zap.SugaredLogger) error {
	settings, sourceData, err := loadSettings(opts)
	if err != nil {
		return err
	}
	cfg, err := settings.ToTimelineConfig()
	if err != nil {
		return err
	}
	pipeline, err := timeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	source, closeSource, err := app.OpenSource(sourceData, cfg.Location, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	subjects := []string{opts.subject}
	if opts.subject == "" {
		if subjects, err = source.Subjects(ctx); err != nil {
			return err
		}
	}

	win, err := reportWindow(ctx, opts, cfg, source, subjects)
	if err != nil {
		return err
	}
	logger.Debugw("building reports", "subjects", len(subjects), "start", win.Start, "end", win.End)

	var events []timeline.RawEvent
	for _, s := range subjects {
		rows, err := source.Events(ctx, s, win.Start, win.End)
		if err != nil {
			return err
		}
		events = append(events, rows...)
	}

	reports, err := pipeline.RunSubjects(ctx, events, win)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []timeline.Report{}
	}
	loadDiag, err := source.LoadDiagnostics(ctx)
	if err != nil {
		return err
	}
	if opts.subject != "" {
		loadDiag = loadDiag.ForSubject(opts.subject)
	}
	id := uuid.NewString()
	for i := range reports {
		reports[i].ID = id
		reports[i].Diagnostics.Merge(loadDiag.ForSubject(reports[i].SubjectID))
	}
	if n := loadDiag.DroppedCount(); n > 0 {
		logger.Warnw("rows dropped while loading", "dropped", n)
	}

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(restserver.FleetResponse{
		ReportID:    id,
		Window:      win,
		Reports:     reports,
		Total:       timeline.CombineReports(reports, cfg.Kinds),
		Diagnostics: loadDiag,
	})
}

// reportWindow picks the window from the flags, falling back to the default
// date over every selected subject.
func reportWindow(ctx context.Context, opts options, cfg timeline.Config, source ingest.Source, subjects []string) (timeline.Window, error) {
	if opts.start != "" || opts.end != "" {
		s, err := time.Parse(time.RFC3339, opts.start)
		if err != nil {
			return timeline.Window{}, fmt.Errorf("invalid -start: %w", err)
		}
		e, err := time.Parse(time.RFC3339, opts.end)
		if err != nil {
			return timeline.Window{}, fmt.Errorf("invalid -end: %w", err)
		}
		return timeline.NewWindow(s, e)
	}

	if opts.date != "" {
		d, err := ingest.ParseDate(opts.date, cfg.Location)
		if err != nil {
			return timeline.Window{}, err
		}
		return cfg.OperationalDay(d)
	}

	var all []timeline.RawEvent
	for _, s := range subjects {
		rows, err := source.Events(ctx, s, time.Time{}, time.Time{})
		if err != nil {
			return timeline.Window{}, err
		}
		all = append(all, rows...)
	}
	d, ok := timeline.DefaultDate(timeline.AvailableDates(all, cfg.AnchorHour, cfg.Location))
	if !ok {
		return timeline.Window{}, fmt.Errorf("no activity to report; pass -date or -start and -end")
	}
	return cfg.OperationalDay(d)
}
