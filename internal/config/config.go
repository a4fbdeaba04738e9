// Package config resolves run settings from defaults, a YAML file and the
// environment, in that order. Command-line flags are applied last by cmd/.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "TANIMOTO_"

// Default file locations.
const (
	DefaultInput  = "chemicals.tsv"
	DefaultOutput = "chem_sim_total.tsv"
)

// Config holds every setting of a batch run or of the server.
type Config struct {
	Workers    int           `yaml:"workers"`
	Precision  int           `yaml:"precision"`
	Rounding   string        `yaml:"rounding"`
	Sorted     bool          `yaml:"sorted"`
	Strict     bool          `yaml:"strict"`
	Timeout    time.Duration `yaml:"timeout"`
	SkipHeader bool          `yaml:"skip_header"`
	Summary    bool          `yaml:"summary"`
	CacheSize  int           `yaml:"cache_size"`
	Normalizer string        `yaml:"normalizer"`
	Input      string        `yaml:"input"`
	Output     string        `yaml:"output"`
	LogFile    string        `yaml:"log_file"`
	LogJSON    bool          `yaml:"log_json"`
}

// Default returns the built-in configuration. Workers defaults to the number
// of logical CPUs on the host.
func Default() Config {
	return Config{
		Workers:    DefaultWorkers(),
		Precision:  similarity.DefaultPrecision,
		Rounding:   similarity.HalfUp.String(),
		Sorted:     true,
		Normalizer: "trim",
		Input:      DefaultInput,
		Output:     DefaultOutput,
	}
}

// DefaultWorkers returns the host's logical CPU count.
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Load builds a configuration from defaults, the optional YAML file at path
// and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.FromEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// FromEnv loads an optional .env file and overlays TANIMOTO_* variables onto c.
func (c *Config) FromEnv() error {
	_ = godotenv.Load()

	var errs []error
	envInt(EnvPrefix+"WORKERS", &c.Workers, &errs)
	envInt(EnvPrefix+"PRECISION", &c.Precision, &errs)
	envInt(EnvPrefix+"CACHE_SIZE", &c.CacheSize, &errs)
	envString(EnvPrefix+"ROUNDING", &c.Rounding)
	envString(EnvPrefix+"NORMALIZER", &c.Normalizer)
	envString(EnvPrefix+"INPUT", &c.Input)
	envString(EnvPrefix+"OUTPUT", &c.Output)
	envString(EnvPrefix+"LOG_FILE", &c.LogFile)
	envBool(EnvPrefix+"SORTED", &c.Sorted, &errs)
	envBool(EnvPrefix+"STRICT", &c.Strict, &errs)
	envBool(EnvPrefix+"SKIP_HEADER", &c.SkipHeader, &errs)
	envBool(EnvPrefix+"SUMMARY", &c.Summary, &errs)
	envBool(EnvPrefix+"LOG_JSON", &c.LogJSON, &errs)
	if v, ok := os.LookupEnv(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Timeout = d
		}
	}
	return errors.Join(errs...)
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w (got %d)", domain.ErrInvalidWorkers, c.Workers)
	}
	rounding, err := similarity.ParseRoundingMode(c.Rounding)
	if err != nil {
		return err
	}
	if err := (similarity.Config{Precision: c.Precision, Rounding: rounding}).Validate(); err != nil {
		return err
	}
	if _, err := normalizer.ParseType(c.Normalizer); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.CacheSize < 0 {
		return errors.New("cache_size must not be negative")
	}
	return nil
}

func envInt(key string, dst *int, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func envBool(key string, dst *bool, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
