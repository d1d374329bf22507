package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/agroplan/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "agroplan",
	Short: "Crop-to-bed planning with constraint programming",
	Long: `agroplan assigns every planned crop cultivation to a garden bed so that
no two overlapping cultivations share a bed and every declared agronomic
rule holds: return delays, precedences, spatial interactions, dilution,
grouping and bed compatibility.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// persistentFlags maps the flags shared by every command to their viper key.
var persistentFlags = map[string]string{
	"beds":       "data.beds",
	"calendar":   "data.calendar",
	"crop-types": "data.crop_types",
	"past-plan":  "data.past_plan",
	"rules":      "data.rules",
	"succession": "compile.succession",
	"reinit":     "compile.reinitialisation",
	"narrow":     "compile.narrow_domains",
	"log-level":  "log.level",
	"log-format": "log.format",
	"telemetry":  "telemetry.path",
	"archive":    "archive.path",
	"verbose":    "verbose",
	"output-sep": "output.separator",
	"strategy":   "solver.strategy",
	"time-limit": "solver.time_limit",
	"node-limit": "solver.node_limit",
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .agroplan.yaml)")
	pf.BoolP("verbose", "v", false, "print per-rule statistics")
	pf.String("beds", "", "beds file")
	pf.String("calendar", "", "crop calendar file")
	pf.String("crop-types", "", "crop types file")
	pf.String("past-plan", "", "past plan file")
	pf.StringP("rules", "r", "", "rule definitions file (.toml or .yaml)")
	pf.String("succession", "", "succession constraints: cliques or pairwise")
	pf.String("reinit", "", "reinitialisation constraints: hybrid_tables or logical_operations")
	pf.Bool("narrow", false, "restrict domains with enforced location rules")
	pf.String("log-level", "", "log level")
	pf.String("log-format", "", "log format: console or json")
	pf.String("telemetry", "", "JSONL telemetry file")
	pf.String("archive", "", "SQLite archive of runs")
	pf.String("output-sep", "", "delimiter of exported plans")
	pf.String("strategy", "", "search strategy")
	pf.Duration("time-limit", 0, "time budget per solve step")
	pf.Int64("node-limit", 0, "node budget per solve step")

	for flag, key := range persistentFlags {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".agroplan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	config.BindEnv(viper.GetViper())

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
