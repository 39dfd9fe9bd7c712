package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/chrissnell/shiftline/internal/database"
	"github.com/chrissnell/shiftline/pkg/config"
	"github.com/chrissnell/shiftline/pkg/migrate"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver, registered as "pgx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	var (
		dbDriver       = flag.String("driver", "sqlite", "Database driver (sqlite, postgres)")
		dbDSN          = flag.String("dsn", "", "Database connection string")
		migrationDir   = flag.String("dir", "", "Migration directory (default: the embedded schema for -driver)")
		migrationTable = flag.String("table", "schema_migrations", "Migration table name")
		command        = flag.String("command", "up", "Migration command: up, down, to, version, status")
		targetVersion  = flag.String("target", "", "Target version for down/to commands")
		helpFlag       = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *dbDSN == "" {
		fmt.Fprintf(os.Stderr, "Error: -dsn flag is required\n")
		showHelp()
		os.Exit(1)
	}

	sqlDriver, err := driverName(*dbDriver)
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(sqlDriver, *dbDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	provider, err := newProvider(*dbDriver, *migrationDir, *migrationTable)
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	migrator := migrate.NewMigrator(db, provider).WithSchema(schemaName(*dbDriver)).WithLogger(logger.Sugar())

	switch *command {
	case "up":
		err = migrator.MigrateUp()
	case "down", "to":
		var target int
		target, err = parseTarget(*command, *targetVersion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *command == "down" {
			err = migrator.MigrateDown(target)
		} else {
			err = migrator.MigrateTo(target)
		}
	case "version":
		version, err := migrator.GetCurrentVersion()
		if err != nil {
			log.Fatalf("Failed to get current version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		return
	case "status":
		err = showStatus(migrator)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Migration command failed: %v", err)
	}

	fmt.Println("Migration completed successfully")
}

// driverName maps the -driver flag onto a registered database/sql driver.
func driverName(driver string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "pgx", nil
	}
	return "", fmt.Errorf("unsupported driver %q (use sqlite or postgres)", driver)
}

// newProvider reads dir when given, otherwise the schema embedded for driver:
// the configuration store for sqlite, activity_events for postgres.
func newProvider(driver, dir, table string) (*migrate.FileProvider, error) {
	if dir != "" {
		return migrate.NewFileProviderWithDriver(dir, table, driver), nil
	}

	var embedded fs.FS
	switch driver {
	case "sqlite":
		embedded = config.MigrationsFS()
	case "postgres":
		embedded = database.MigrationsFS()
	default:
		return nil, fmt.Errorf("no embedded migrations for driver %q", driver)
	}
	return migrate.NewFSProvider(embedded, "migrations", table, driver), nil
}

// schemaName labels the embedded schema each driver migrates.
func schemaName(driver string) string {
	if driver == "postgres" {
		return "activity_events"
	}
	return "config"
}

func parseTarget(command, target string) (int, error) {
	if target == "" {
		return 0, fmt.Errorf("-target flag is required for %s command", command)
	}
	v, err := strconv.Atoi(target)
	if err != nil {
		return 0, fmt.Errorf("invalid target version: %w", err)
	}
	return v, nil
}

func showStatus(migrator *migrate.Migrator) error {
	st, err := migrator.Status()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Printf("Current version: %d\n", st.Current)
	fmt.Printf("Latest version: %d\n", st.Latest)
	fmt.Printf("Pending migrations: %d\n", len(st.Pending))

	if len(st.Pending) > 0 {
		fmt.Println("\nPending migrations:")
		for _, migration := range st.Pending {
			fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
		}
	}

	return nil
}

func showHelp() {
	fmt.Println("Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -driver string     Database driver (default: sqlite)")
	fmt.Println("  -dsn string        Database connection string (required)")
	fmt.Println("  -dir string        Migration directory (default: embedded schema)")
	fmt.Println("  -table string      Migration table name (default: schema_migrations)")
	fmt.Println("  -command string    Migration command (default: up)")
	fmt.Println("  -target string     Target version for down/to commands")
	fmt.Println("  -help              Show this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  down               Roll back to target version")
	fmt.Println("  to                 Migrate to specific version (up or down)")
	fmt.Println("  version            Show current migration version")
	fmt.Println("  status             Show migration status")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  migrate -dsn config.db -command up")
	fmt.Println("  migrate -dsn config.db -command status")
	fmt.Println("  migrate -driver postgres -dsn postgres://shiftline@localhost/shiftline -command up")
}
