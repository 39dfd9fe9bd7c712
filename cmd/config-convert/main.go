package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/shiftline/pkg/config"
	"go.uber.org/zap"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	configData, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}
	if _, err := configData.Timeline.ToTimelineConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid timeline settings: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
		printConfigSummary(configData)
		return
	}

	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := convert(*sqliteFile, configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

// convert creates dbPath, applies the embedded schema and stores configData.
func convert(dbPath string, configData *config.ConfigData) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite provider: %w", err)
	}
	defer provider.Close()

	logger, _ := zap.NewDevelopment()
	if err := provider.InitSchema(logger.Sugar()); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

func printConfigSummary(configData *config.ConfigData) {
	t := configData.Timeline
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("Timeline:\n")
	fmt.Printf("  gap threshold: %g min, anchor: %02d:00, night: %02d:00-%02d:00\n",
		t.GapThresholdMinutes, t.WindowAnchorHour, t.NightEveningStartHour, t.NightMorningEndHour)
	fmt.Printf("  merge key: %s, multi-day policy: %s, timezone: %s\n", t.MergeKey, t.MultiDayPolicy, t.Timezone)
	fmt.Printf("  reasons: %d managed, %d mechanical, %d essential\n",
		len(t.ManagedReasons), len(t.MechanicalReasons), len(t.EssentialReasons))
	fmt.Printf("  exclusions: %d labels, %d rules\n", len(t.ExcludedOperations), len(t.ExclusionRules))

	fmt.Printf("\nSource: %s\n", configData.Source.Type)
	if configData.Source.CSV != nil {
		fmt.Printf("  - CSV: %s\n", configData.Source.CSV.Path)
	}
	if configData.Source.Postgres != nil {
		fmt.Printf("  - PostgreSQL: configured\n")
	}

	if configData.Server.Port != 0 {
		fmt.Printf("\nServer: %s:%d\n", configData.Server.ListenAddr, configData.Server.Port)
	}
}
