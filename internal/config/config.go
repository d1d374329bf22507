// Package config loads the runtime configuration of agroplan from viper:
// .agroplan.yaml, AGROPLAN_* environment variables and CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/papapumpkin/agroplan/internal/plan"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/rules"
	"github.com/papapumpkin/agroplan/internal/solver"
)

// DataConfig locates the input files.
type DataConfig struct {
	Beds      string `mapstructure:"beds"`
	Calendar  string `mapstructure:"calendar"`
	CropTypes string `mapstructure:"crop_types"`
	PastPlan  string `mapstructure:"past_plan"`
	Rules     string `mapstructure:"rules"`
}

// SolverConfig bounds and steers the search.
type SolverConfig struct {
	Strategy     string        `mapstructure:"strategy"`
	TimeLimit    time.Duration `mapstructure:"time_limit"`
	NodeLimit    int64         `mapstructure:"node_limit"`
	MaxSolutions int           `mapstructure:"max_solutions"`
}

// CompileConfig selects how rules are turned into constraints.
type CompileConfig struct {
	Succession       string `mapstructure:"succession"`
	Reinitialisation string `mapstructure:"reinitialisation"`
	NarrowDomains    bool   `mapstructure:"narrow_domains"`
}

// OutputConfig controls exported plans.
type OutputConfig struct {
	Separator string `mapstructure:"separator"`
}

// FileConfig names an optional output file; empty disables it.
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds all runtime configuration for a planning run.
type Config struct {
	Data      DataConfig    `mapstructure:"data"`
	Solver    SolverConfig  `mapstructure:"solver"`
	Compile   CompileConfig `mapstructure:"compile"`
	Output    OutputConfig  `mapstructure:"output"`
	Telemetry FileConfig    `mapstructure:"telemetry"`
	Archive   FileConfig    `mapstructure:"archive"`
	Log       LogConfig     `mapstructure:"log"`
	Verbose   bool          `mapstructure:"verbose"`
}

// EnvPrefix prefixes the environment variables read by BindEnv.
const EnvPrefix = "AGROPLAN"

// BindEnv maps AGROPLAN_SECTION_KEY variables onto section.key settings.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.beds", "beds.csv")
	v.SetDefault("data.calendar", "crop_calendar.csv")
	v.SetDefault("data.crop_types", "")
	v.SetDefault("data.past_plan", "")
	v.SetDefault("data.rules", "")
	v.SetDefault("solver.strategy", "default")
	v.SetDefault("solver.time_limit", 30*time.Second)
	v.SetDefault("solver.node_limit", 0)
	v.SetDefault("solver.max_solutions", 1)
	v.SetDefault("compile.succession", "cliques")
	v.SetDefault("compile.reinitialisation", "hybrid_tables")
	v.SetDefault("compile.narrow_domains", false)
	v.SetDefault("output.separator", ";")
	v.SetDefault("telemetry.path", "")
	v.SetDefault("archive.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("verbose", false)
}

// Load reads configuration from the global viper instance, applying
// built-in defaults for any values not set by config file, environment, or
// flags, then validates it.
func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load over an explicit viper instance.
func LoadFrom(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", planerr.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid value.
func (c Config) Validate() error {
	var errs []error
	if _, err := solver.LookupStrategy(c.Solver.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RuleOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.Solver.TimeLimit < 0 || c.Solver.NodeLimit < 0 || c.Solver.MaxSolutions < 0 {
		errs = append(errs, fmt.Errorf("%w: solver limits must not be negative", planerr.ErrConfiguration))
	}
	if _, err := plan.Separator(c.Output.Separator); err != nil {
		errs = append(errs, fmt.Errorf("%w: output.separator: %v", planerr.ErrConfiguration, err))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %v", planerr.ErrConfiguration, err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("%w: log.format must be console or json, got %q", planerr.ErrConfiguration, c.Log.Format))
	}
	return errors.Join(errs...)
}

// RuleOptions parses the compile settings.
func (c Config) RuleOptions() (rules.Options, error) {
	succ, err := rules.ParseSuccessionImpl(c.Compile.Succession)
	if err != nil {
		return rules.Options{}, err
	}
	reset, err := rules.ParseResetImpl(c.Compile.Reinitialisation)
	if err != nil {
		return rules.Options{}, err
	}
	return rules.Options{Succession: succ, Reset: reset}, nil
}

// SolverOptions returns the per-call search limits.
func (c Config) SolverOptions() solver.Options {
	return solver.Options{TimeLimit: c.Solver.TimeLimit, NodeLimit: c.Solver.NodeLimit}
}

// Separator returns the plan export delimiter. The configuration must be
// valid.
func (c Config) Separator() rune {
	r, _ := plan.Separator(c.Output.Separator)
	return r
}
