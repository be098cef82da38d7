package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML/JSON configuration file schema.
type FileConfig struct {
	BaseURL   string `yaml:"baseURL" json:"baseURL"`
	UserAgent string `yaml:"userAgent" json:"userAgent"`
	Start     *int   `yaml:"start" json:"start"`
	End       *int   `yaml:"end" json:"end"`

	Output struct {
		Dir      string   `yaml:"dir" json:"dir"`
		DB       string   `yaml:"db" json:"db"`
		Tags     []string `yaml:"tags" json:"tags"`
		Dataset  bool     `yaml:"dataset" json:"dataset"`
		Markdown bool     `yaml:"markdown" json:"markdown"`
	} `yaml:"output" json:"output"`

	Fetch struct {
		Concurrency  int           `yaml:"concurrency" json:"concurrency"`
		Rate         float64       `yaml:"rate" json:"rate"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		MaxAttempts  int           `yaml:"maxAttempts" json:"maxAttempts"`
		IgnoreRobots bool          `yaml:"ignoreRobots" json:"ignoreRobots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		Disable     bool          `yaml:"disable" json:"disable"`
	} `yaml:"cache" json:"cache"`

	Drive struct {
		Copy  bool   `yaml:"copy" json:"copy"`
		Mount string `yaml:"mount" json:"mount"`
	} `yaml:"drive" json:"drive"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays the non-zero values of fc onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setBool := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}
	setStr(&cfg.BaseURL, fc.BaseURL)
	setStr(&cfg.UserAgent, fc.UserAgent)
	if fc.Start != nil {
		cfg.Start = *fc.Start
	}
	if fc.End != nil {
		cfg.End = *fc.End
	}

	setStr(&cfg.OutputDir, fc.Output.Dir)
	setStr(&cfg.DBPath, fc.Output.DB)
	if len(fc.Output.Tags) > 0 {
		cfg.Tags = append([]string(nil), fc.Output.Tags...)
	}
	setBool(&cfg.Dataset, fc.Output.Dataset)
	setBool(&cfg.Markdown, fc.Output.Markdown)

	if fc.Fetch.Concurrency > 0 {
		cfg.Concurrency = fc.Fetch.Concurrency
	}
	if fc.Fetch.Rate > 0 {
		cfg.Rate = fc.Fetch.Rate
	}
	if fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	setBool(&cfg.IgnoreRobots, fc.Fetch.IgnoreRobots)

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	setBool(&cfg.CacheClear, fc.Cache.Clear)
	setBool(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
	setBool(&cfg.NoCache, fc.Cache.Disable)

	setBool(&cfg.DriveCopy, fc.Drive.Copy)
	setStr(&cfg.DriveMount, fc.Drive.Mount)

	setBool(&cfg.Verbose, fc.Verbose)
}
