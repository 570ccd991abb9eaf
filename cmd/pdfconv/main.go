// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfconv CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfconv/internal/logging"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitFailure   = 1
	exitCancelled = 2
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// cfg and logger are populated by PersistentPreRunE before any subcommand runs.
var (
	cfg    types.Config
	logger zerolog.Logger
)

// rootCmd is the base command for the pdfconv CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfconv",
	Short: "Convert PDF documents to text, Word, HTML, Markdown, or images",
	Long: `pdfconv converts PDF documents into other representations: plain text,
Word (.docx), HTML, Markdown, or one raster image per page.

Image output quality comes from a named preset (low, medium, high, ultra) or
from custom --dpi, --encoding, and --compression values. Word, HTML, and
Markdown are produced by pandoc, run locally or from a container image.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		l, err := logging.New(c.Log, os.Stderr)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfconv.yaml or ~/.config/pdfconv/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdfconv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdfconv"))
		}
	}

	viper.SetEnvPrefix("PDFCONV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
	}
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	os.Exit(exitFailure)
}
