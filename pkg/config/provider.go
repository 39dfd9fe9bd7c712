package config

import "fmt"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetTimelineSettings() (*TimelineSettings, error)
	GetSource() (*SourceData, error)
	GetServer() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Timeline TimelineSettings `json:"timeline"`
	Source   SourceData       `json:"source"`
	Server   ServerData       `json:"server,omitempty"`
}

// TimelineSettings holds the tunables of the timeline engine. Durations are in
// minutes and hours are 0-23 in the configured timezone.
type TimelineSettings struct {
	GapThresholdMinutes   float64             `json:"gap_threshold_minutes"`
	ManagedReasons        []string            `json:"managed_reasons"`
	MechanicalReasons     []string            `json:"mechanical_reasons"`
	EssentialReasons      []string            `json:"essential_reasons"`
	WindowAnchorHour      int                 `json:"window_anchor_hour"`
	NightEveningStartHour int                 `json:"night_evening_start_hour"`
	NightMorningEndHour   int                 `json:"night_morning_end_hour"`
	ExcludedOperations    []string            `json:"excluded_operations,omitempty"`
	ExclusionRules        []ExclusionRuleData `json:"exclusion_rules,omitempty"`
	MergeKey              string              `json:"merge_key"`
	MultiDayPolicy        string              `json:"multi_day_policy"`
	ShiftExpectedMinutes  float64             `json:"shift_expected_minutes,omitempty"`
	ShiftToleranceMinutes float64             `json:"shift_tolerance_minutes,omitempty"`
	Timezone              string              `json:"timezone,omitempty"`
	Workers               int                 `json:"workers,omitempty"`
}

// ExclusionRuleData is a substring rule for dropping operation labels.
type ExclusionRuleData struct {
	Contains []string `json:"contains"`
	AnyOf    []string `json:"any_of,omitempty"`
}

// Source types
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// SourceData says where activity rows come from
type SourceData struct {
	Type     string              `json:"type"`
	CSV      *CSVSourceData      `json:"csv,omitempty"`
	Postgres *PostgresSourceData `json:"postgres,omitempty"`
}

type CSVSourceData struct {
	Path      string         `json:"path"`
	Delimiter string         `json:"delimiter,omitempty"`
	Columns   CSVColumnsData `json:"columns"`
}

// CSVColumnsData maps row fields to header names. Empty names fall back to
// the defaults of the activity export.
type CSVColumnsData struct {
	Subject      string `json:"subject,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	ResourceName string `json:"resource_name,omitempty"`
	Group        string `json:"group,omitempty"`
	Operation    string `json:"operation,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Date         string `json:"date,omitempty"`
}

type PostgresSourceData struct {
	ConnectionString string `json:"connection_string"`
}

// ServerData holds the REST server configuration
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
}

// Configuration backends
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// OpenProvider returns the provider for backend reading filename.
func OpenProvider(backend, filename string) (ConfigProvider, error) {
	switch backend {
	case BackendYAML, "":
		return NewYAMLProvider(filename), nil
	case BackendSQLite:
		p, err := NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", backend)
}
