package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/csv-echo/internal/apperr"
	"github.com/DjordjeVuckovic/csv-echo/internal/delay"
	"github.com/DjordjeVuckovic/csv-echo/internal/emitter"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CSV_ECHO"

const (
	KeyColumn    = "column"
	KeyMin       = "min"
	KeyMax       = "max"
	KeyOnMissing = "on-missing"
	KeySeed      = "seed"
	KeyProfile   = "profile"
	KeyLogLevel  = "log-level"
)

const (
	DefaultMin       = 0.2
	DefaultMax       = 0.5
	DefaultOnMissing = string(emitter.MissingWarn)
	DefaultLogLevel  = "info"
)

// Config is the resolved, immutable configuration of one run.
type Config struct {
	Path      string
	Column    string
	Min       time.Duration
	Max       time.Duration
	OnMissing emitter.MissingPolicy
	Seed      *uint64
	LogLevel  slog.Level
}

func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyColumn, "", "Name of the column to output (required)")
	fs.Float64(KeyMin, DefaultMin, "Minimum sleep time in seconds")
	fs.Float64(KeyMax, DefaultMax, "Maximum sleep time in seconds")
	fs.String(KeyOnMissing, DefaultOnMissing, "What to do with rows lacking the column: warn or skip")
	fs.Uint64(KeySeed, 0, "Seed for the delay generator (random when unset)")
	fs.String(KeyProfile, "", "YAML profile with default settings")
	fs.String(KeyLogLevel, DefaultLogLevel, "Diagnostic log level: debug, info, warn or error")
}

// Load resolves the configuration for the CSV file at path. Values come from
// changed flags, then CSV_ECHO_* environment variables, then the profile,
// then flag defaults.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if profilePath := v.GetString(KeyProfile); profilePath != "" {
		if err := applyProfile(v, profilePath); err != nil {
			return nil, err
		}
	}

	minSec, err := seconds(v, KeyMin)
	if err != nil {
		return nil, err
	}
	maxSec, err := seconds(v, KeyMax)
	if err != nil {
		return nil, err
	}

	onMissing, err := emitter.ParseMissingPolicy(v.GetString(KeyOnMissing))
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, apperr.NewValidationWrap("invalid --log-level", err)
	}

	cfg := &Config{
		Path:      path,
		Column:    v.GetString(KeyColumn),
		Min:       delay.FromSeconds(minSec),
		Max:       delay.FromSeconds(maxSec),
		OnMissing: onMissing,
		LogLevel:  level,
	}

	if v.IsSet(KeySeed) {
		seed, err := cast.ToUint64E(v.Get(KeySeed))
		if err != nil {
			return nil, apperr.NewValidationWrap("invalid --seed", err)
		}
		cfg.Seed = &seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return apperr.NewValidation("a CSV file path is required")
	}
	if c.Column == "" {
		return apperr.NewValidation("--column is required")
	}
	if c.Min < 0 {
		return apperr.NewValidation("--min must not be negative")
	}
	if c.Min > c.Max {
		return apperr.NewValidation("--min must be less than or equal to --max")
	}
	return nil
}

// DelayPolicy builds the uniform delay policy described by the config.
func (c *Config) DelayPolicy() (delay.Policy, error) {
	var opts []delay.UniformOption
	if c.Seed != nil {
		opts = append(opts, delay.WithSeed(*c.Seed))
	}
	return delay.NewUniform(c.Min, c.Max, opts...)
}

func applyProfile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.NewValidationWrap("open profile", err)
	}
	defer f.Close()

	profile, err := NewProfileLoader(f).Load()
	if err != nil {
		return apperr.NewValidationWrap("load profile "+path, err)
	}

	for key, value := range profile.defaults() {
		v.SetDefault(key, value)
	}
	return nil
}

func seconds(v *viper.Viper, key string) (float64, error) {
	s, err := cast.ToFloat64E(v.Get(key))
	if err != nil {
		return 0, apperr.NewValidationWrap("invalid --"+key, err)
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, apperr.NewValidation("--" + key + " must be a finite number of seconds")
	}
	return s, nil
}
