package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flaky/internal/classify"
	"flaky/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string

	// Report settings
	ReportsDir    string
	ReportPattern string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	Processors int
	Cycles     int
	Command    []string

	// Classification tunables
	Thresholds domain.Thresholds

	// Export settings
	ExportTable string

	// Command flags
	Flags Flags
}

// Flags holds command-line flags. Nil threshold pointers mean "not given".
type Flags struct {
	ConfigFile        string
	Processors        int
	Cycles            int
	ReportsDir        string
	Pattern           string
	NameFilter        string
	FlakyOnly         bool
	Open              bool
	Verbose           bool
	MinRuns           *int
	FlakyMin          *float64
	FlakyMax          *float64
	VarianceThreshold *float64
}

// fileConfig is the YAML shape of the config file
type fileConfig struct {
	Cycles        *int              `yaml:"cycles"`
	Processors    *int              `yaml:"processors"`
	ReportsDir    string            `yaml:"reports_dir"`
	ReportPattern string            `yaml:"report_pattern"`
	OutputDir     string            `yaml:"output_dir"`
	OutputFile    string            `yaml:"output_file"`
	ExportTable   string            `yaml:"export_table"`
	Command       []string          `yaml:"command"`
	Thresholds    domain.Thresholds `yaml:"thresholds"`
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectPath:    DefaultProjectPath,
		ReportsDir:     DefaultReportsDir,
		ReportPattern:  DefaultReportPattern,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Cycles:         DefaultCycles,
		Thresholds:     classify.DefaultThresholds(),
		ExportTable:    DefaultExportTable,
		Flags:          Flags{Processors: DefaultProcessors, Cycles: DefaultCycles},
	}
}

// Load creates a config from defaults, the config file, the environment and
// flags, in increasing order of precedence
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags

	path := flags.ConfigFile
	required := path != ""
	if !required {
		path = filepath.Join(cfg.ProjectPath, DefaultConfigFile)
	}
	if err := cfg.LoadFile(path); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile applies the settings of a YAML config file
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// keys missing from the file keep their current value
	fc := fileConfig{Thresholds: c.Thresholds}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Cycles != nil {
		c.Cycles = *fc.Cycles
	}
	if fc.Processors != nil {
		c.Processors = *fc.Processors
	}
	if fc.ReportsDir != "" {
		c.ReportsDir = fc.ReportsDir
	}
	if fc.ReportPattern != "" {
		c.ReportPattern = fc.ReportPattern
	}
	if fc.OutputDir != "" {
		c.OutputJSONDir = fc.OutputDir
	}
	if fc.OutputFile != "" {
		c.OutputJSONFile = fc.OutputFile
	}
	if fc.ExportTable != "" {
		c.ExportTable = fc.ExportTable
	}
	if len(fc.Command) > 0 {
		c.Command = fc.Command
	}
	c.Thresholds = fc.Thresholds

	return nil
}

// ApplyEnv loads the project's .env file, if any, and applies FLAKY_* variables
func (c *Config) ApplyEnv() error {
	envPath := filepath.Join(c.ProjectPath, ".env")
	if err := godotenv.Load(envPath); err != nil {
		// .env file might not exist, that's okay - use environment variables
		_ = err
	}

	var errs []error
	if err := envInt(EnvMinRuns, &c.Thresholds.MinRuns); err != nil {
		errs = append(errs, err)
	}
	if err := envFloat(EnvThresholdMin, &c.Thresholds.FlakyThresholdMin); err != nil {
		errs = append(errs, err)
	}
	if err := envFloat(EnvThresholdMax, &c.Thresholds.FlakyThresholdMax); err != nil {
		errs = append(errs, err)
	}
	if err := envFloat(EnvVarianceThreshold, &c.Thresholds.DurationVarianceThreshold); err != nil {
		errs = append(errs, err)
	}
	if err := envInt(EnvCycles, &c.Cycles); err != nil {
		errs = append(errs, err)
	}
	if err := envInt(EnvProcessors, &c.Processors); err != nil {
		errs = append(errs, err)
	}
	if dir := os.Getenv(EnvReportsDir); dir != "" {
		c.ReportsDir = dir
	}
	return errors.Join(errs...)
}

// ApplyFlags overrides settings with flags that were given
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags

	// zero means the flag was not given, anything else goes to Validate
	if flags.Processors != 0 {
		c.Processors = flags.Processors
	}
	if flags.Cycles != 0 {
		c.Cycles = flags.Cycles
	}
	if flags.ReportsDir != "" {
		c.ReportsDir = flags.ReportsDir
	}
	if flags.Pattern != "" {
		c.ReportPattern = flags.Pattern
	}
	if flags.MinRuns != nil {
		c.Thresholds.MinRuns = *flags.MinRuns
	}
	if flags.FlakyMin != nil {
		c.Thresholds.FlakyThresholdMin = *flags.FlakyMin
	}
	if flags.FlakyMax != nil {
		c.Thresholds.FlakyThresholdMax = *flags.FlakyMax
	}
	if flags.VarianceThreshold != nil {
		c.Thresholds.DurationVarianceThreshold = *flags.VarianceThreshold
	}
}

// Validate checks the settings that would otherwise fail late
func (c *Config) Validate() error {
	var errs []error
	if c.Processors < 1 {
		errs = append(errs, fmt.Errorf("processors must be at least 1, got %d", c.Processors))
	}
	if c.Cycles < 1 {
		errs = append(errs, fmt.Errorf("cycles must be at least 1, got %d", c.Cycles))
	}
	if _, err := filepath.Match(c.ReportPattern, ""); err != nil {
		errs = append(errs, fmt.Errorf("invalid report pattern %q: %w", c.ReportPattern, err))
	}
	if err := classify.Validate(c.Thresholds); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// GetReportsDir returns the directory reports are written to and read from
func (c *Config) GetReportsDir() string {
	if filepath.IsAbs(c.ReportsDir) {
		return c.ReportsDir
	}
	return filepath.Join(c.ProjectPath, c.ReportsDir)
}

// GetReportPath returns where the given cycle must write its report
func (c *Config) GetReportPath(cycle int) string {
	return filepath.Join(c.GetReportsDir(), fmt.Sprintf("cycle-%d.json", cycle))
}

// GetOutputPath returns the full path to the output JSON file (under project so run and view use the same file).
// Resolves to an absolute path so commands always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// DatabaseConfig holds the MySQL connection settings used by export
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Table    string
}

// GetDatabaseConfig returns the export database settings from the environment
func (c *Config) GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     envOr("DB_HOST", "127.0.0.1"),
		Port:     envOr("DB_PORT", "3306"),
		User:     envOr("DB_USERNAME", "root"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     envOr("DB_DATABASE", "flaky"),
		Table:    c.ExportTable,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = f
	return nil
}
