package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Env takes precedence over a config file; flags are applied after.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("SCP_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SCP_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("SCP_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SCP_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SCP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SCP_DRIVE_MOUNT"); v != "" {
		cfg.DriveMount = v
	}
	if v := strings.TrimSpace(os.Getenv("SCP_TAGS")); v != "" {
		cfg.Tags = splitList(v)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SCP_CONCURRENCY"))); err == nil && n > 0 {
		cfg.Concurrency = n
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("SCP_RATE")), 64); err == nil && f >= 0 {
		cfg.Rate = f
	}
	if s := os.Getenv("SCP_CACHE_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.Dataset, "SCP_DATASET")
	setBool(&cfg.Markdown, "SCP_MARKDOWN")
	setBool(&cfg.DriveCopy, "SCP_DRIVE_COPY")
	setBool(&cfg.IgnoreRobots, "SCP_IGNORE_ROBOTS")
	setBool(&cfg.CacheClear, "SCP_CACHE_CLEAR")
	setBool(&cfg.Verbose, "VERBOSE")
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
