package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Site
	BaseURL   string
	UserAgent string

	// Range, End exclusive
	Start int
	End   int

	// Output
	OutputDir string
	DBPath    string
	Tags      []string
	Dataset   bool
	Markdown  bool

	// Fetching
	Concurrency  int
	Rate         float64
	Timeout      time.Duration
	MaxAttempts  int
	IgnoreRobots bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	NoCache          bool

	// Remote copy
	DriveCopy  bool
	DriveMount string

	Verbose bool
}

const (
	defaultBaseURL     = "http://www.scp-wiki.net"
	defaultUserAgent   = "scpscraper/1.0 (+https://github.com/hyperifyio/scpscraper)"
	defaultOutputDir   = "."
	defaultConcurrency = 4
	defaultTimeout     = 20 * time.Second
	defaultMaxAttempts = 3
)

// DefaultCacheDir is the page cache location under the XDG cache home.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "scpscraper")
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BaseURL:     defaultBaseURL,
		UserAgent:   defaultUserAgent,
		Start:       0,
		End:         1000,
		OutputDir:   defaultOutputDir,
		Concurrency: defaultConcurrency,
		Timeout:     defaultTimeout,
		MaxAttempts: defaultMaxAttempts,
		CacheDir:    DefaultCacheDir(),
	}
}

// ValidateConfig rejects configurations the runner cannot execute.
func ValidateConfig(cfg Config) error {
	var errs []error
	if cfg.Start < 0 {
		errs = append(errs, fmt.Errorf("start must be >= 0, got %d", cfg.Start))
	}
	if cfg.End < cfg.Start {
		errs = append(errs, fmt.Errorf("end %d before start %d", cfg.End, cfg.Start))
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 1, got %d", cfg.Concurrency))
	}
	if cfg.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate must be >= 0, got %g", cfg.Rate))
	}
	if cfg.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max attempts must be >= 0, got %d", cfg.MaxAttempts))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if cfg.OutputDir == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	return errors.Join(errs...)
}
