package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abyan-ai/askme/pkg/config"
)

var version = "dev"

const defaultConfigPath = "askme.yaml"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "askme",
		Short:         "askme: rate-limited AI assistant and scraping API for a portfolio site",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")

	load := func() (*config.Config, error) {
		return loadConfig(configPath)
	}
	root.AddCommand(
		newServeCmd(load),
		newAskCmd(load),
		newScrapeCmd(load),
		newPersonasCmd(),
		newCacheCmd(load),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)

// loadConfig reads .env files and the config file, then configures logging.
// A missing default config file means built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		cfg, err = config.Load("")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(lc config.LogConfig) error {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(lc.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", lc.Format)
	}
	return nil
}
