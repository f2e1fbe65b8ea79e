// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the openadas CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/openadas/internal/logging"
	"github.com/pdiddy/openadas/internal/secrets"
	"github.com/pdiddy/openadas/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the configuration resolved from defaults, file, env and flags.
	cfg types.Config
	// logger is built from cfg.Log before any subcommand runs.
	logger = zap.NewNop().Sugar()
)

// rootCmd is the base command for the openadas CLI.
var rootCmd = &cobra.Command{
	Use:   "openadas",
	Short: "Install and read OpenADAS atomic rate data",
	Long: `openadas downloads OpenADAS fixed-format data files (ADF11, ADF12, ADF15,
ADF21, ADF22), decodes them into SI units and stores the records in a local
YAML repository keyed by rate class, species and ionisation stage.

Run "openadas install" once to populate the repository, then read records
with "get" and "wavelength" or inspect the install catalog with "list".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/", nil)
		if err != nil {
			return err
		}
		if token, ok := s[secrets.MirrorToken]; ok && c.Acquisition.Token == "" {
			c.Acquisition.Token = token
		}

		l, err := logging.New(c.Log, os.Stderr)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			l.Debugw("loaded secrets", "keys", keys)
		}
		if f := viper.ConfigFileUsed(); f != "" {
			l.Debugw("using config file", "path", f)
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./openadas.yaml or ~/.config/openadas/openadas.yaml)")
	pf.String("repository", "", "repository directory (default ~/.openadas/repository)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")

	_ = viper.BindPFlag("repository.path", pf.Lookup("repository"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	home, _ := os.UserHomeDir()
	setDefaults(types.DefaultConfig(home))

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("openadas")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "openadas"))
		}
	}

	viper.SetEnvPrefix("OPENADAS")
	viper.SetEnvKeyReplacer(envKeys)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Reading config file:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
