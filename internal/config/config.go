// Package config provides the ingestion configuration surface and its
// CLI-adjacent helpers (glob expansion, relative-time parsing).
package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solwick/cascade/internal/cache"
	"github.com/solwick/cascade/internal/parseerr"
	"github.com/solwick/cascade/internal/profile"
)

// CacheConfig controls the dispatcher's per-source format cache.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	MaxEntries int  `mapstructure:"max_entries" yaml:"max_entries"`
	TTLSeconds int  `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
	MinSamples int  `mapstructure:"min_samples" yaml:"min_samples"`
}

// StreamConfig controls the sequential streaming engine's batching.
type StreamConfig struct {
	Enabled          bool `mapstructure:"enabled" yaml:"enabled"`
	BatchSize        int  `mapstructure:"batch_size" yaml:"batch_size"`
	BufferSize       int  `mapstructure:"buffer_size" yaml:"buffer_size"`
	MemoryBudgetBytes int `mapstructure:"memory_budget_bytes" yaml:"memory_budget_bytes"`
}

// ParallelConfig controls the parallel engine's worker pool.
type ParallelConfig struct {
	Enabled       bool `mapstructure:"enabled" yaml:"enabled"`
	Workers       int  `mapstructure:"workers" yaml:"workers"`
	BatchSize     int  `mapstructure:"batch_size" yaml:"batch_size"`
	QueueCapacity int  `mapstructure:"queue_capacity" yaml:"queue_capacity"`
}

// StatsConfig controls the statistics monitor.
type StatsConfig struct {
	Enabled       bool `mapstructure:"enabled" yaml:"enabled"`
	ReportInterval int `mapstructure:"report_interval" yaml:"report_interval"`
}

// ProfileDef describes one named profile from profiles.yaml: either a
// built-in (Apache/Nginx/Syslog, selected by Kind) or a user-defined
// regex/CSV grammar.
type ProfileDef struct {
	Kind    string `yaml:"kind"` // "apache", "nginx", "syslog", "regex", "csv"
	Pattern string `yaml:"pattern,omitempty"`

	FieldMappings   map[string]int `yaml:"field_mappings,omitempty"`
	TimestampField  string         `yaml:"timestamp_field,omitempty"`
	LevelField      string         `yaml:"level_field,omitempty"`
	MessageField    string         `yaml:"message_field,omitempty"`
	TimestampFormat string         `yaml:"timestamp_format,omitempty"`

	Delimiter       string         `yaml:"delimiter,omitempty"`
	HasHeader       bool           `yaml:"has_header,omitempty"`
	ColumnMappings  map[string]int `yaml:"column_mappings,omitempty"`
}

// Build constructs the live profile.Profile this definition describes.
func (d ProfileDef) Build() (profile.Profile, error) {
	switch d.Kind {
	case "apache":
		return profile.NewApache(), nil
	case "nginx":
		return profile.NewNginx(), nil
	case "syslog":
		return profile.NewSyslog(), nil
	case "regex":
		return profile.NewRegex(profile.RegexConfig{
			Pattern:         d.Pattern,
			FieldMappings:   d.FieldMappings,
			TimestampField:  d.TimestampField,
			LevelField:      d.LevelField,
			MessageField:    d.MessageField,
			TimestampFormat: d.TimestampFormat,
		})
	case "csv":
		delim := ','
		if d.Delimiter != "" {
			delim = rune(d.Delimiter[0])
		}
		return profile.NewCSV(profile.CSVConfig{
			Delimiter:       delim,
			HasHeader:       d.HasHeader,
			ColumnMappings:  d.ColumnMappings,
			TimestampColumn: d.TimestampField,
			LevelColumn:     d.LevelField,
			MessageColumn:   d.MessageField,
			TimestampFormat: d.TimestampFormat,
		})
	default:
		return nil, &parseerr.ConfigurationError{Parameter: "kind", ErrorMessage: "unknown profile kind: " + d.Kind}
	}
}

// ProfileBindingDef binds a named profile to a source pattern, mirroring
// dispatch.ProfileBinding but expressed in file/flag-friendly form.
type ProfileBindingDef struct {
	SourcePattern string `yaml:"source_pattern"`
	Profile       string `yaml:"profile"`
}

// Config is the single ingestion configuration struct: every switch
// and limit the cache, streaming, parallel, and statistics components
// take, plus the named profile map bound by source pattern.
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Parallel ParallelConfig `mapstructure:"parallel"`
	Stats    StatsConfig    `mapstructure:"stats"`

	DefaultSource string `mapstructure:"default_source"`

	Profiles map[string]ProfileDef `mapstructure:"-" yaml:"profiles"`
	Bindings []ProfileBindingDef    `mapstructure:"-" yaml:"bindings"`
}

// Default returns the configuration's defaults, matching
// cache.Cache's, stream.Engine's, and parallel.Engine's own zero-value
// defaults so a Config built from Default() and one built from each
// package's New() agree.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 1000,
			TTLSeconds: int(time.Hour / time.Second),
			MinSamples: 5,
		},
		Stream: StreamConfig{
			Enabled:           true,
			BatchSize:         1000,
			BufferSize:        64 * 1024,
			MemoryBudgetBytes: 100 * 1024 * 1024,
		},
		Parallel: ParallelConfig{
			Enabled:       false,
			Workers:       0,
			BatchSize:     1000,
			QueueCapacity: 10000,
		},
		Stats: StatsConfig{
			Enabled:        true,
			ReportInterval: 10000,
		},
		DefaultSource: "stdin",
	}
}

// LoadProfiles parses a profiles.yaml document (named profile
// definitions plus source-pattern bindings) into Config.Profiles and
// Config.Bindings.
func (c *Config) LoadProfiles(data []byte) error {
	var doc struct {
		Profiles map[string]ProfileDef `yaml:"profiles"`
		Bindings []ProfileBindingDef   `yaml:"bindings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &parseerr.ConfigurationError{Parameter: "profiles.yaml", ErrorMessage: err.Error()}
	}
	c.Profiles = doc.Profiles
	c.Bindings = doc.Bindings
	return nil
}

// NewCache constructs a cache.Cache from the Cache section, or nil if
// caching is disabled.
func (c Config) NewCache() (*cache.Cache, error) {
	if !c.Cache.Enabled {
		return nil, nil
	}
	return cache.NewWithSettings(c.Cache.MaxEntries, time.Duration(c.Cache.TTLSeconds)*time.Second, c.Cache.MinSamples)
}
