// Package cmd provides CLI command implementations
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "peptag",
	Short: "PepTag - MS/MS peptide tag scoring",
	Long: `PepTag scores candidate peptides against tandem mass spectra by matching
fragment ion ladders, with instrument specific ion scores.

Supports:
- MSP and MGF spectra, peptide lists and digested FASTA databases
- Variable and unknown modifications at the precursor mass
- Composition gating, immonium, internal and crosslink ions
- SQLite results with summary statistics`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.peptag.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newTablesCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// initConfig reads the config file and PEPTAG_* environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".peptag")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PEPTAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func initLogger() error {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.DisableStacktrace = true
		l, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	return nil
}

// bindFlags binds a command's flags to viper keys of the same name. Commands share keys, so
// binding happens when a command runs rather than at init.
func bindFlags(cmd *cobra.Command, args []string) error {
	return viper.BindPFlags(cmd.Flags())
}
