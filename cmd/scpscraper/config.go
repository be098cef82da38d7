package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/scpscraper/internal/app"
)

// loadConfig resolves the run configuration. Precedence: flags, environment,
// config file, defaults.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	fs := cmd.Flags()
	envFiles, _ := fs.GetStringSlice("env-file")
	if err := app.LoadEnvFiles(envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := app.DefaultConfig()
	if path, _ := fs.GetString("config"); path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	applyFlags(fs, &cfg)
	return cfg, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(fs *pflag.FlagSet, cfg *app.Config) {
	str := func(name string, dst *string) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}
	integer := func(name string, dst *int) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}

	str("base-url", &cfg.BaseURL)
	str("user-agent", &cfg.UserAgent)
	str("cache-dir", &cfg.CacheDir)
	boolean("no-cache", &cfg.NoCache)
	boolean("cache-clear", &cfg.CacheClear)
	if fs.Changed("cache-max-age") {
		cfg.CacheMaxAge, _ = fs.GetDuration("cache-max-age")
	}
	integer("concurrency", &cfg.Concurrency)
	if fs.Changed("rate") {
		cfg.Rate, _ = fs.GetFloat64("rate")
	}
	if fs.Changed("timeout") {
		cfg.Timeout, _ = fs.GetDuration("timeout")
	}
	boolean("ignore-robots", &cfg.IgnoreRobots)
	boolean("verbose", &cfg.Verbose)

	integer("start", &cfg.Start)
	integer("end", &cfg.End)
	str("output", &cfg.OutputDir)
	str("db", &cfg.DBPath)
	if fs.Lookup("tags") != nil && fs.Changed("tags") {
		cfg.Tags, _ = fs.GetStringSlice("tags")
	}
	boolean("dataset", &cfg.Dataset)
	boolean("markdown", &cfg.Markdown)
	boolean("drive-copy", &cfg.DriveCopy)
	str("drive-mount", &cfg.DriveMount)
}
