// Package config layers the YAML config file, command line flags and
// defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/erinpentecost/wallpaint/internal/export"
	"github.com/erinpentecost/wallpaint/internal/imageio"
	"github.com/erinpentecost/wallpaint/internal/logging"
	"github.com/erinpentecost/wallpaint/internal/paint"
)

// Config holds render and output settings.
type Config struct {
	// Render settings
	WorkingSide  int  `yaml:"working_side"`
	Feather      int  `yaml:"feather"`
	Workers      int  `yaml:"workers"`
	WhiteBalance bool `yaml:"white_balance"`

	// Output
	Format   string `yaml:"format"`
	Quality  int    `yaml:"quality"`
	Compare  bool   `yaml:"compare"`
	LogLevel string `yaml:"log_level"`
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds command line values that override the config file. Zero
// values and nil pointers mean unset.
type Flags struct {
	WorkingSide  int
	Feather      int
	Workers      int
	WhiteBalance *bool
	Format       string
	Quality      int
	Compare      *bool
	LogLevel     string
}

// Resolve applies flags over the file values, then fills defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.WorkingSide > 0 {
		c.WorkingSide = flags.WorkingSide
	}
	if flags.Feather > 0 {
		c.Feather = flags.Feather
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Quality > 0 {
		c.Quality = flags.Quality
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.WhiteBalance != nil {
		c.WhiteBalance = *flags.WhiteBalance
	}
	if flags.Compare != nil {
		c.Compare = *flags.Compare
	}

	// Defaults
	if c.WorkingSide <= 0 {
		c.WorkingSide = imageio.DefaultWorkingSide
	}
	if c.Feather <= 0 {
		c.Feather = paint.DefaultFeatherRadius
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Format == "" {
		c.Format = export.PNG.String()
	}
	if c.Quality <= 0 {
		c.Quality = export.DefaultQuality
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// OutputFormat parses Format.
func (c Config) OutputFormat() (export.Format, error) {
	f, err := export.ParseFormat(c.Format)
	if err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return f, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	l, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	if _, err := c.OutputFormat(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("config: quality %d outside 1..100", c.Quality)
	}
	return nil
}
