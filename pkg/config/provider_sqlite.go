package config

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrissnell/shiftline/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the embedded schema migrations of the configuration database.
func MigrationsFS() embed.FS {
	return migrationsFS
}

const defaultConfigName = "default"

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// pragmas are per connection
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema applies the embedded migrations that have not run yet.
func (s *SQLiteProvider) InitSchema(logger *zap.SugaredLogger) error {
	provider := migrate.NewFSProvider(migrationsFS, "migrations", "schema_migrations", "sqlite")
	return migrate.NewMigrator(s.db, provider).WithSchema("config").WithLogger(logger).MigrateUp()
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	timeline, err := s.GetTimelineSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline settings: %w", err)
	}
	config.Timeline = *timeline

	source, err := s.GetSource()
	if err != nil {
		return nil, fmt.Errorf("failed to load source config: %w", err)
	}
	config.Source = *source

	server, err := s.GetServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = *server

	return config, nil
}

// GetTimelineSettings returns the timeline settings. Without a stored row the
// defaults are returned.
func (s *SQLiteProvider) GetTimelineSettings() (*TimelineSettings, error) {
	query := `
		SELECT gap_threshold_minutes, window_anchor_hour, night_evening_start_hour,
		       night_morning_end_hour, merge_key, multi_day_policy,
		       shift_expected_minutes, shift_tolerance_minutes, timezone, workers
		FROM timeline_settings
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
	`

	settings := DefaultTimelineSettings()
	err := s.db.QueryRow(query, defaultConfigName).Scan(
		&settings.GapThresholdMinutes, &settings.WindowAnchorHour, &settings.NightEveningStartHour,
		&settings.NightMorningEndHour, &settings.MergeKey, &settings.MultiDayPolicy,
		&settings.ShiftExpectedMinutes, &settings.ShiftToleranceMinutes, &settings.Timezone, &settings.Workers,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline settings: %w", err)
	}

	reasons, err := s.getReasonLabels()
	if err != nil {
		return nil, err
	}
	settings.ManagedReasons = reasons["managed"]
	settings.MechanicalReasons = reasons["mechanical"]
	settings.EssentialReasons = reasons["essential"]

	if settings.ExcludedOperations, err = s.getExcludedOperations(); err != nil {
		return nil, err
	}
	if settings.ExclusionRules, err = s.getExclusionRules(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *SQLiteProvider) getReasonLabels() (map[string][]string, error) {
	rows, err := s.db.Query(`
		SELECT category, label FROM reason_labels
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY category, position
	`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query reason labels: %w", err)
	}
	defer rows.Close()

	reasons := make(map[string][]string)
	for rows.Next() {
		var category, label string
		if err := rows.Scan(&category, &label); err != nil {
			return nil, fmt.Errorf("failed to scan reason label row: %w", err)
		}
		reasons[category] = append(reasons[category], label)
	}
	return reasons, rows.Err()
}

func (s *SQLiteProvider) getExcludedOperations() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT label FROM excluded_operations
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY position
	`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query excluded operations: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan excluded operation row: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func (s *SQLiteProvider) getExclusionRules() ([]ExclusionRuleData, error) {
	rows, err := s.db.Query(`
		SELECT contains_terms, any_of_terms FROM exclusion_rules
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY position
	`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusion rules: %w", err)
	}
	defer rows.Close()

	var rules []ExclusionRuleData
	for rows.Next() {
		var contains, anyOf string
		if err := rows.Scan(&contains, &anyOf); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion rule row: %w", err)
		}
		var rule ExclusionRuleData
		if err := json.Unmarshal([]byte(contains), &rule.Contains); err != nil {
			return nil, fmt.Errorf("invalid contains terms %q: %w", contains, err)
		}
		if err := json.Unmarshal([]byte(anyOf), &rule.AnyOf); err != nil {
			return nil, fmt.Errorf("invalid any-of terms %q: %w", anyOf, err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetSource returns the configured activity source
func (s *SQLiteProvider) GetSource() (*SourceData, error) {
	query := `
		SELECT source_type, csv_path, csv_delimiter, csv_columns, postgres_connection_string
		FROM source_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
	`

	var sourceType string
	var csvPath, csvDelimiter, csvColumns, pgConn sql.NullString

	err := s.db.QueryRow(query, defaultConfigName).Scan(&sourceType, &csvPath, &csvDelimiter, &csvColumns, &pgConn)
	if errors.Is(err, sql.ErrNoRows) {
		return &SourceData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source config: %w", err)
	}

	source := &SourceData{Type: sourceType}
	switch sourceType {
	case SourceCSV:
		source.CSV = &CSVSourceData{
			Path:      csvPath.String,
			Delimiter: csvDelimiter.String,
		}
		if csvColumns.Valid && csvColumns.String != "" {
			if err := json.Unmarshal([]byte(csvColumns.String), &source.CSV.Columns); err != nil {
				return nil, fmt.Errorf("invalid csv column mapping: %w", err)
			}
		}
	case SourcePostgres:
		source.Postgres = &PostgresSourceData{ConnectionString: pgConn.String}
	}

	return source, nil
}

// GetServer returns the REST server configuration
func (s *SQLiteProvider) GetServer() (*ServerData, error) {
	query := `
		SELECT listen_addr, port, tls_cert, tls_key
		FROM server_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
	`

	var listenAddr, cert, key sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(query, defaultConfigName).Scan(&listenAddr, &port, &cert, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return &ServerData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}

	return &ServerData{
		ListenAddr: listenAddr.String,
		Port:       int(port.Int64),
		Cert:       cert.String,
		Key:        key.String,
	}, nil
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write methods for configuration management

// SaveConfig replaces the stored configuration with configData in one transaction.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	// Start transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx, defaultConfigName)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	if err := s.insertTimelineSettings(tx, configID, &configData.Timeline); err != nil {
		return fmt.Errorf("failed to insert timeline settings: %w", err)
	}

	if configData.Source.Type != "" {
		if err := s.insertSource(tx, configID, &configData.Source); err != nil {
			return fmt.Errorf("failed to insert source config: %w", err)
		}
	}

	if err := s.insertServer(tx, configID, &configData.Server); err != nil {
		return fmt.Errorf("failed to insert server config: %w", err)
	}

	// Commit transaction
	return tx.Commit()
}

func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx, name string) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO configs (name, created_at, updated_at) VALUES (?, datetime('now'), datetime('now'))
		ON CONFLICT(name) DO UPDATE SET updated_at = datetime('now')
	`, name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow("SELECT id FROM configs WHERE name = ?", name).Scan(&id)
	return id, err
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM timeline_settings WHERE config_id = ?",
		"DELETE FROM reason_labels WHERE config_id = ?",
		"DELETE FROM excluded_operations WHERE config_id = ?",
		"DELETE FROM exclusion_rules WHERE config_id = ?",
		"DELETE FROM source_configs WHERE config_id = ?",
		"DELETE FROM server_configs WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertTimelineSettings(tx *sql.Tx, configID int64, t *TimelineSettings) error {
	query := `
		INSERT INTO timeline_settings (
			config_id, gap_threshold_minutes, window_anchor_hour, night_evening_start_hour,
			night_morning_end_hour, merge_key, multi_day_policy,
			shift_expected_minutes, shift_tolerance_minutes, timezone, workers
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query, configID,
		t.GapThresholdMinutes, t.WindowAnchorHour, t.NightEveningStartHour,
		t.NightMorningEndHour, t.MergeKey, t.MultiDayPolicy,
		t.ShiftExpectedMinutes, t.ShiftToleranceMinutes, t.Timezone, t.Workers,
	)
	if err != nil {
		return err
	}

	categories := []struct {
		name   string
		labels []string
	}{
		{"managed", t.ManagedReasons},
		{"mechanical", t.MechanicalReasons},
		{"essential", t.EssentialReasons},
	}
	for _, c := range categories {
		for i, label := range c.labels {
			if _, err := tx.Exec(
				"INSERT INTO reason_labels (config_id, category, label, position) VALUES (?, ?, ?, ?)",
				configID, c.name, label, i,
			); err != nil {
				return err
			}
		}
	}

	for i, label := range t.ExcludedOperations {
		if _, err := tx.Exec(
			"INSERT INTO excluded_operations (config_id, label, position) VALUES (?, ?, ?)",
			configID, label, i,
		); err != nil {
			return err
		}
	}

	for i, rule := range t.ExclusionRules {
		contains, err := marshalTerms(rule.Contains)
		if err != nil {
			return err
		}
		anyOf, err := marshalTerms(rule.AnyOf)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO exclusion_rules (config_id, position, contains_terms, any_of_terms) VALUES (?, ?, ?, ?)",
			configID, i, contains, anyOf,
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteProvider) insertSource(tx *sql.Tx, configID int64, source *SourceData) error {
	var csvPath, csvDelimiter, csvColumns, pgConn sql.NullString

	if source.CSV != nil {
		columns, err := json.Marshal(source.CSV.Columns)
		if err != nil {
			return err
		}
		csvPath = nullString(source.CSV.Path)
		csvDelimiter = nullString(source.CSV.Delimiter)
		csvColumns = nullString(string(columns))
	}
	if source.Postgres != nil {
		pgConn = nullString(source.Postgres.ConnectionString)
	}

	_, err := tx.Exec(`
		INSERT INTO source_configs (config_id, source_type, csv_path, csv_delimiter, csv_columns, postgres_connection_string)
		VALUES (?, ?, ?, ?, ?, ?)
	`, configID, source.Type, csvPath, csvDelimiter, csvColumns, pgConn)
	return err
}

func (s *SQLiteProvider) insertServer(tx *sql.Tx, configID int64, server *ServerData) error {
	if *server == (ServerData{}) {
		return nil
	}
	_, err := tx.Exec(`
		INSERT INTO server_configs (config_id, listen_addr, port, tls_cert, tls_key) VALUES (?, ?, ?, ?, ?)
	`, configID, nullString(server.ListenAddr), server.Port, nullString(server.Cert), nullString(server.Key))
	return err
}

func marshalTerms(terms []string) (string, error) {
	if terms == nil {
		terms = []string{}
	}
	b, err := json.Marshal(terms)
	return string(b), err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
