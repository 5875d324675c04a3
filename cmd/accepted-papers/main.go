// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the accepted-papers CLI.
//
// scrape resolves a conference listing page, fetches every paper's abstract
// and full text, writes a table, and optionally indexes the abstracts.
// search, schema, and clear operate on the vector store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/accepted-papers/internal/logging"
	"github.com/pdiddy/accepted-papers/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// dotenv holds variables read from .env at startup.
	dotenv map[string]string

	// logger is built from the log config before any subcommand runs.
	logger = zap.NewNop()
)

// secretDefault returns value if set, otherwise the key found in the
// environment, .env, or .secrets/.
func secretDefault(value string) string {
	if value != "" {
		return value
	}
	return secrets.OpenAIKey(loadedSecrets, dotenv)
}

// rootCmd is the base command for the accepted-papers CLI.
var rootCmd = &cobra.Command{
	Use:   "accepted-papers",
	Short: "Scrape accepted-paper listings and search them semantically",
	Long: `accepted-papers reads a conference's accepted-paper listing, resolves each
paper's arXiv entry, fetches its abstract and full text, and writes the
results as CSV, JSON, or YAML. Abstracts can be embedded and stored in a
local vector store for semantic search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if dotenv, err = secrets.LoadEnvFile(".env"); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = log

		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("loaded secrets", zap.Strings("keys", keys))
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Info("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./accepted-papers.yaml or ~/.config/accepted-papers/accepted-papers.yaml)")
	pf.String("db", "", "vector store database file (default accepted-papers.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default warn)")
	pf.String("log-format", "", "log format: console or json (default console)")

	mustBind("store.path", pf.Lookup("db"))
	mustBind("log.level", pf.Lookup("log-level"))
	mustBind("log.format", pf.Lookup("log-format"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("accepted-papers")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "accepted-papers"))
		}
	}

	viper.SetEnvPrefix("ACCEPTED_PAPERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: could not read config file %s: %v\n", cfgFile, err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
