// Command shiftline-import copies activity rows from a CSV export into the
// activity_events table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chrissnell/shiftline/internal/database"
	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/internal/log"
)

func main() {
	var (
		csvFile   = flag.String("csv", "", "CSV file of activity rows (required)")
		dsn       = flag.String("dsn", "", "PostgreSQL connection string (required)")
		delimiter = flag.String("delimiter", ",", "CSV field delimiter")
		timezone  = flag.String("timezone", "UTC", "Timezone of the clock times in the file")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *csvFile == "" || *dsn == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -csv <rows.csv> -dsn <connection string>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", *timezone, err)
	}
	var comma rune
	if r := []rune(*delimiter); len(r) == 1 {
		comma = r[0]
	} else {
		log.Fatalf("delimiter %q must be a single character", *delimiter)
	}

	logger := log.GetSugaredLogger()
	events, diag, err := ingest.NewCSVLoader(ingest.DefaultColumns(), comma, loc, logger).LoadFile(*csvFile)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *csvFile, err)
	}
	for _, issue := range diag.Issues {
		logger.Warnw("skipped row", "row", issue.Row, "reason", issue.Reason, "detail", issue.Detail)
	}

	src, err := database.Open(*dsn, loc, logger)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer src.Close()

	if err := src.Insert(context.Background(), events); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Infow("import complete", "rows", len(events), "skipped", diag.DroppedCount())
}
