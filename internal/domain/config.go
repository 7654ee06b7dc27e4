package domain

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// AuditConfig is the fully-resolved, process-scoped configuration. It is
// built once before discovery runs and read-only thereafter.
type AuditConfig struct {
	Validation  ValidationConfig  `yaml:"validation"  json:"validation"`
	Scanning    ScanningConfig    `yaml:"scanning"    json:"scanning"`
	Reporting   ReportingConfig   `yaml:"reporting"   json:"reporting"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
}

// ValidationConfig toggles individual validator categories.
type ValidationConfig struct {
	Components bool `yaml:"components" json:"components"`
	APIs       bool `yaml:"apis"       json:"apis"`
	Flows      bool `yaml:"flows"      json:"flows"`
	References bool `yaml:"references" json:"references"`
}

// ScanningConfig controls which files discovery and the index consider.
type ScanningConfig struct {
	IncludePatterns []string `yaml:"include_patterns" json:"include_patterns,omitempty"`
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns,omitempty"`
	FileExtensions  []string `yaml:"file_extensions"  json:"file_extensions,omitempty"`
}

// Reporting formats.
const (
	FormatConsole    = "console"
	FormatStructured = "structured"
	FormatDocument   = "document"
)

type ReportingConfig struct {
	Format          string `yaml:"format"           json:"format"`
	Verbose         bool   `yaml:"verbose"          json:"verbose"`
	ShowSuggestions bool   `yaml:"show_suggestions" json:"show_suggestions"`
}

type PerformanceConfig struct {
	MaxExecutionTime Duration `yaml:"max_execution_time" json:"max_execution_time"`
	Parallel         bool     `yaml:"parallel"           json:"parallel"`
	Workers          int      `yaml:"workers"            json:"workers"`
	CacheEnabled     bool     `yaml:"cache_enabled"      json:"cache_enabled"`
}

// Duration wraps time.Duration so YAML configs can say "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultConfig returns the built-in configuration layer.
func DefaultConfig() AuditConfig {
	return AuditConfig{
		Validation: ValidationConfig{
			Components: true,
			APIs:       true,
			Flows:      true,
			References: true,
		},
		Scanning: ScanningConfig{
			FileExtensions: []string{".ts", ".tsx", ".js", ".jsx", ".go"},
		},
		Reporting: ReportingConfig{
			Format:          FormatConsole,
			ShowSuggestions: true,
		},
		Performance: PerformanceConfig{
			MaxExecutionTime: Duration(30 * time.Second),
			Parallel:         true,
		},
	}
}

// ConfigOverlay is one partial configuration layer (the config file or CLI
// overrides). Pointer fields distinguish "not specified" from zero values
// so precedence is per key, not whole-object replacement.
type ConfigOverlay struct {
	Validation struct {
		Components *bool `yaml:"components"`
		APIs       *bool `yaml:"apis"`
		Flows      *bool `yaml:"flows"`
		References *bool `yaml:"references"`
	} `yaml:"validation"`
	Scanning struct {
		IncludePatterns []string `yaml:"include_patterns"`
		ExcludePatterns []string `yaml:"exclude_patterns"`
		FileExtensions  []string `yaml:"file_extensions"`
	} `yaml:"scanning"`
	Reporting struct {
		Format          *string `yaml:"format"`
		Verbose         *bool   `yaml:"verbose"`
		ShowSuggestions *bool   `yaml:"show_suggestions"`
	} `yaml:"reporting"`
	Performance struct {
		MaxExecutionTime *Duration `yaml:"max_execution_time"`
		Parallel         *bool     `yaml:"parallel"`
		Workers          *int      `yaml:"workers"`
		CacheEnabled     *bool     `yaml:"cache_enabled"`
	} `yaml:"performance"`
}

// Merge overlays one partial layer on top of cfg. Later layers win per key.
func Merge(cfg AuditConfig, layer ConfigOverlay) AuditConfig {
	if layer.Validation.Components != nil {
		cfg.Validation.Components = *layer.Validation.Components
	}
	if layer.Validation.APIs != nil {
		cfg.Validation.APIs = *layer.Validation.APIs
	}
	if layer.Validation.Flows != nil {
		cfg.Validation.Flows = *layer.Validation.Flows
	}
	if layer.Validation.References != nil {
		cfg.Validation.References = *layer.Validation.References
	}
	if len(layer.Scanning.IncludePatterns) > 0 {
		cfg.Scanning.IncludePatterns = layer.Scanning.IncludePatterns
	}
	if len(layer.Scanning.ExcludePatterns) > 0 {
		cfg.Scanning.ExcludePatterns = layer.Scanning.ExcludePatterns
	}
	if len(layer.Scanning.FileExtensions) > 0 {
		cfg.Scanning.FileExtensions = layer.Scanning.FileExtensions
	}
	if layer.Reporting.Format != nil {
		cfg.Reporting.Format = *layer.Reporting.Format
	}
	if layer.Reporting.Verbose != nil {
		cfg.Reporting.Verbose = *layer.Reporting.Verbose
	}
	if layer.Reporting.ShowSuggestions != nil {
		cfg.Reporting.ShowSuggestions = *layer.Reporting.ShowSuggestions
	}
	if layer.Performance.MaxExecutionTime != nil {
		cfg.Performance.MaxExecutionTime = *layer.Performance.MaxExecutionTime
	}
	if layer.Performance.Parallel != nil {
		cfg.Performance.Parallel = *layer.Performance.Parallel
	}
	if layer.Performance.Workers != nil {
		cfg.Performance.Workers = *layer.Performance.Workers
	}
	if layer.Performance.CacheEnabled != nil {
		cfg.Performance.CacheEnabled = *layer.Performance.CacheEnabled
	}
	return cfg
}

// Validate catches typos in user-supplied layers before the run starts.
func (c AuditConfig) Validate() error {
	switch c.Reporting.Format {
	case FormatConsole, FormatStructured, FormatDocument:
	default:
		return fmt.Errorf("unknown reporting format %q (want console, structured or document)", c.Reporting.Format)
	}
	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must be >= 0, got %d", c.Performance.Workers)
	}
	if c.Performance.MaxExecutionTime < 0 {
		return fmt.Errorf("performance.max_execution_time must be positive")
	}
	return nil
}
