// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fundscore CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fundscore/internal/logging"
	"github.com/pdiddy/fundscore/internal/normalize"
	"github.com/pdiddy/fundscore/internal/score"
	"github.com/pdiddy/fundscore/internal/tables"
	"github.com/pdiddy/fundscore/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedTables holds the scoring and normalization tables loaded at startup.
var loadedTables types.Tables

// rootCmd is the base command for the fundscore CLI.
var rootCmd = &cobra.Command{
	Use:   "fundscore",
	Short: "Normalize and confidence-score private fund records",
	Long: `fundscore cleans raw private-fund records gathered from heterogeneous
sources and assigns each a confidence score in [0,1].

Normalization canonicalizes fund names, strategies, geographies, fund sizes
and vintage years. Scoring combines source reliability, completeness of the
required and important fields, and a plausibility check. Records that clear
the acceptance threshold can be ingested into a local SQLite fund store.

Scoring and normalization tables are built in; pass --tables to layer a
YAML file over them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		format := viper.GetString("log_format")
		if err := logging.ValidateFormat(format); err != nil {
			return err
		}
		logging.Init(level, format, os.Stderr)

		path := viper.GetString("tables")
		t, err := tables.Load(path)
		if err != nil {
			return err
		}
		loadedTables = t
		if path != "" {
			slog.Debug("loaded tables", "path", path, "sources", len(t.Scoring.Reliability))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./fundscore.yaml or ~/.config/fundscore/fundscore.yaml)")
	pf.String("tables", "", "YAML file with scoring and normalization tables layered over the defaults")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("data-dir", "data", "base directory for the fund store (contains index/)")

	bindFlag("tables", "tables")
	bindFlag("log_level", "log-level")
	bindFlag("log_format", "log-format")
	bindFlag("data_dir", "data-dir")
}

// bindFlag binds a persistent root flag to a viper key so the value can
// also come from the config file or a FUNDSCORE_ environment variable.
func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fundscore")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fundscore"))
		}
	}

	viper.SetEnvPrefix("FUNDSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildStages returns the normalizer and scorer for the loaded tables.
func buildStages() (*normalize.Normalizer, *score.Scorer, error) {
	return tables.Build(loadedTables)
}

// storeConfig returns the fund store settings from flags and config.
func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		DataDir:    viper.GetString("data_dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
