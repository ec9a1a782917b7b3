// Package main provides the rsvep command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/rsvep/internal/vep"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsvep",
		Short: "Annotate dbSNP RSIDs using the Ensembl VEP REST API",
		Long: `rsvep reads a list of dbSNP RSIDs, queries the Ensembl VEP REST API for
each one, and writes the extracted annotations to a tab-separated file
or a DuckDB database.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.rsvep.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with per-identifier progress")

	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".rsvep")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("RSVEP")
	viper.AutomaticEnv()

	viper.SetDefault("species", vep.DefaultSpecies)
	viper.SetDefault("max_retries", vep.DefaultMaxRetries)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	return nil
}
