package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. D1LOGDIGEST_OUTPUT_DIR.
const EnvPrefix = "D1LOGDIGEST"

// Config holds the digest settings resolved from flags, environment and the
// optional config file.
type Config struct {
	LogDirs      []string `mapstructure:"log_dirs"`
	OutputDir    string   `mapstructure:"output_dir"`
	Debug        bool     `mapstructure:"debug"`
	LogLevel     string   `mapstructure:"log_level"`
	MaxRecord    float64  `mapstructure:"max_record"` // hours before now, lower bound
	MinRecord    float64  `mapstructure:"min_record"` // hours before now, upper bound
	MaxLines     int      `mapstructure:"max_lines"`
	MaxPerType   int      `mapstructure:"max_per_type"`
	MaxLineWidth int      `mapstructure:"max_line_width"`
	Similar      bool     `mapstructure:"similar"`
	Similarity   float64  `mapstructure:"similarity"`
	Workers      int      `mapstructure:"workers"`
	JSON         bool     `mapstructure:"json"`
	MetricsFile  string   `mapstructure:"metrics_file"`
	NoProgress   bool     `mapstructure:"no_progress"`
}

// Defaults registers default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("log_dirs", []string{
		"/var/log/dataone",
		"/var/log/tomcat7",
		"/var/log/solr",
		"/var/metacat/logs",
	})
	v.SetDefault("output_dir", "/var/tmp/logdigest")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_record", 744.0)
	v.SetDefault("min_record", 0.0)
	v.SetDefault("max_lines", 200)
	v.SetDefault("max_per_type", 25)
	v.SetDefault("max_line_width", 120)
	v.SetDefault("similarity", 0.8)
	v.SetDefault("workers", runtime.NumCPU())
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if len(c.LogDirs) == 0 {
		errs = append(errs, errors.New("log_dirs must name at least one directory"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must be set"))
	}
	if c.MaxRecord > 0 && c.MinRecord > 0 && c.MinRecord > c.MaxRecord {
		errs = append(errs, fmt.Errorf("min_record (%gh) must not exceed max_record (%gh)", c.MinRecord, c.MaxRecord))
	}
	if c.MaxLines < 1 {
		errs = append(errs, fmt.Errorf("max_lines must be positive, got %d", c.MaxLines))
	}
	if c.MaxPerType < 1 {
		errs = append(errs, fmt.Errorf("max_per_type must be positive, got %d", c.MaxPerType))
	}
	if c.MaxLineWidth < 20 {
		errs = append(errs, fmt.Errorf("max_line_width must be at least 20, got %d", c.MaxLineWidth))
	}
	if c.Similarity <= 0 || c.Similarity > 1 {
		errs = append(errs, fmt.Errorf("similarity must be in (0, 1], got %g", c.Similarity))
	}
	return errors.Join(errs...)
}
