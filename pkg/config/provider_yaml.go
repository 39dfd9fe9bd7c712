package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file. Timeline keys
// missing from the file keep their default values.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// ParseYAML decodes a YAML document into ConfigData.
func ParseYAML(data []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Timeline TimelineYAML `yaml:"timeline"`
		Source   SourceYAML   `yaml:"source"`
		Server   ServerYAML   `yaml:"server,omitempty"`
	}
	yamlConfig.Timeline = timelineToYAML(DefaultTimelineSettings())

	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Timeline: yamlConfig.Timeline.toData(),
		Source: SourceData{
			Type: yamlConfig.Source.Type,
		},
		Server: ServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
			Port:       yamlConfig.Server.Port,
			Cert:       yamlConfig.Server.Cert,
			Key:        yamlConfig.Server.Key,
		},
	}

	if c := yamlConfig.Source.CSV; c != nil {
		config.Source.CSV = &CSVSourceData{
			Path:      c.Path,
			Delimiter: c.Delimiter,
			Columns: CSVColumnsData{
				Subject:      c.Columns.Subject,
				ResourceID:   c.Columns.ResourceID,
				ResourceName: c.Columns.ResourceName,
				Group:        c.Columns.Group,
				Operation:    c.Columns.Operation,
				StartTime:    c.Columns.StartTime,
				EndTime:      c.Columns.EndTime,
				Date:         c.Columns.Date,
			},
		}
	}
	if p := yamlConfig.Source.Postgres; p != nil {
		config.Source.Postgres = &PostgresSourceData{
			ConnectionString: p.ConnectionString,
		}
	}

	return config, nil
}

// GetTimelineSettings returns the timeline section
func (y *YAMLProvider) GetTimelineSettings() (*TimelineSettings, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Timeline, nil
}

// GetSource returns the source section
func (y *YAMLProvider) GetSource() (*SourceData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Source, nil
}

// GetServer returns the server section
func (y *YAMLProvider) GetServer() (*ServerData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Server, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with YAML tags
type TimelineYAML struct {
	GapThresholdMinutes   float64             `yaml:"gap-threshold-minutes"`
	ManagedReasons        []string            `yaml:"managed-reasons"`
	MechanicalReasons     []string            `yaml:"mechanical-reasons"`
	EssentialReasons      []string            `yaml:"essential-reasons"`
	WindowAnchorHour      int                 `yaml:"window-anchor-hour"`
	NightEveningStartHour int                 `yaml:"night-evening-start-hour"`
	NightMorningEndHour   int                 `yaml:"night-morning-end-hour"`
	ExcludedOperations    []string            `yaml:"excluded-operations,omitempty"`
	ExclusionRules        []ExclusionRuleYAML `yaml:"exclusion-rules,omitempty"`
	MergeKey              string              `yaml:"merge-key"`
	MultiDayPolicy        string              `yaml:"multi-day-policy"`
	ShiftExpectedMinutes  float64             `yaml:"shift-expected-minutes,omitempty"`
	ShiftToleranceMinutes float64             `yaml:"shift-tolerance-minutes,omitempty"`
	Timezone              string              `yaml:"timezone,omitempty"`
	Workers               int                 `yaml:"workers,omitempty"`
}

type ExclusionRuleYAML struct {
	Contains []string `yaml:"contains"`
	AnyOf    []string `yaml:"any-of,omitempty"`
}

type SourceYAML struct {
	Type     string              `yaml:"type"`
	CSV      *CSVSourceYAML      `yaml:"csv,omitempty"`
	Postgres *PostgresSourceYAML `yaml:"postgres,omitempty"`
}

type CSVSourceYAML struct {
	Path      string         `yaml:"path"`
	Delimiter string         `yaml:"delimiter,omitempty"`
	Columns   CSVColumnsYAML `yaml:"columns,omitempty"`
}

type CSVColumnsYAML struct {
	Subject      string `yaml:"subject,omitempty"`
	ResourceID   string `yaml:"resource-id,omitempty"`
	ResourceName string `yaml:"resource-name,omitempty"`
	Group        string `yaml:"group,omitempty"`
	Operation    string `yaml:"operation,omitempty"`
	StartTime    string `yaml:"start-time,omitempty"`
	EndTime      string `yaml:"end-time,omitempty"`
	Date         string `yaml:"date,omitempty"`
}

type PostgresSourceYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ServerYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
}

func timelineToYAML(s TimelineSettings) TimelineYAML {
	rules := make([]ExclusionRuleYAML, len(s.ExclusionRules))
	for i, r := range s.ExclusionRules {
		rules[i] = ExclusionRuleYAML{Contains: r.Contains, AnyOf: r.AnyOf}
	}
	return TimelineYAML{
		GapThresholdMinutes:   s.GapThresholdMinutes,
		ManagedReasons:        s.ManagedReasons,
		MechanicalReasons:     s.MechanicalReasons,
		EssentialReasons:      s.EssentialReasons,
		WindowAnchorHour:      s.WindowAnchorHour,
		NightEveningStartHour: s.NightEveningStartHour,
		NightMorningEndHour:   s.NightMorningEndHour,
		ExcludedOperations:    s.ExcludedOperations,
		ExclusionRules:        rules,
		MergeKey:              s.MergeKey,
		MultiDayPolicy:        s.MultiDayPolicy,
		ShiftExpectedMinutes:  s.ShiftExpectedMinutes,
		ShiftToleranceMinutes: s.ShiftToleranceMinutes,
		Timezone:              s.Timezone,
		Workers:               s.Workers,
	}
}

func (t TimelineYAML) toData() TimelineSettings {
	rules := make([]ExclusionRuleData, len(t.ExclusionRules))
	for i, r := range t.ExclusionRules {
		rules[i] = ExclusionRuleData{Contains: r.Contains, AnyOf: r.AnyOf}
	}
	return TimelineSettings{
		GapThresholdMinutes:   t.GapThresholdMinutes,
		ManagedReasons:        t.ManagedReasons,
		MechanicalReasons:     t.MechanicalReasons,
		EssentialReasons:      t.EssentialReasons,
		WindowAnchorHour:      t.WindowAnchorHour,
		NightEveningStartHour: t.NightEveningStartHour,
		NightMorningEndHour:   t.NightMorningEndHour,
		ExcludedOperations:    t.ExcludedOperations,
		ExclusionRules:        rules,
		MergeKey:              t.MergeKey,
		MultiDayPolicy:        t.MultiDayPolicy,
		ShiftExpectedMinutes:  t.ShiftExpectedMinutes,
		ShiftToleranceMinutes: t.ShiftToleranceMinutes,
		Timezone:              t.Timezone,
		Workers:               t.Workers,
	}
}

// MarshalYAML renders cfg with the same keys ParseYAML reads.
func MarshalYAML(cfg *ConfigData) ([]byte, error) {
	out := struct {
		Timeline TimelineYAML `yaml:"timeline"`
		Source   SourceYAML   `yaml:"source"`
		Server   ServerYAML   `yaml:"server,omitempty"`
	}{
		Timeline: timelineToYAML(cfg.Timeline),
		Source:   SourceYAML{Type: cfg.Source.Type},
		Server: ServerYAML{
			ListenAddr: cfg.Server.ListenAddr,
			Port:       cfg.Server.Port,
			Cert:       cfg.Server.Cert,
			Key:        cfg.Server.Key,
		},
	}
	if c := cfg.Source.CSV; c != nil {
		out.Source.CSV = &CSVSourceYAML{
			Path:      c.Path,
			Delimiter: c.Delimiter,
			Columns: CSVColumnsYAML{
				Subject:      c.Columns.Subject,
				ResourceID:   c.Columns.ResourceID,
				ResourceName: c.Columns.ResourceName,
				Group:        c.Columns.Group,
				Operation:    c.Columns.Operation,
				StartTime:    c.Columns.StartTime,
				EndTime:      c.Columns.EndTime,
				Date:         c.Columns.Date,
			},
		}
	}
	if p := cfg.Source.Postgres; p != nil {
		out.Source.Postgres = &PostgresSourceYAML{ConnectionString: p.ConnectionString}
	}
	return yaml.Marshal(out)
}
