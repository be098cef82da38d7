package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("SCP_TEST_K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("# first\nSCP_TEST_K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("SCP_TEST_K=\"second\"\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, filepath.Join(dir, "missing"), b); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if got := os.Getenv("SCP_TEST_K"); got != "second" {
		t.Fatalf("got %q, want second", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SCP_BASE_URL", "http://mirror.example")
	t.Setenv("SCP_OUTPUT_DIR", "/tmp/out")
	t.Setenv("SCP_CONCURRENCY", "9")
	t.Setenv("SCP_RATE", "2.5")
	t.Setenv("SCP_TAGS", "keter, euclid,,")
	t.Setenv("SCP_DATASET", "yes")
	t.Setenv("SCP_DRIVE_COPY", "0")

	cfg := DefaultConfig()
	cfg.DriveCopy = true
	ApplyEnvOverrides(&cfg)
	if cfg.BaseURL != "http://mirror.example" || cfg.OutputDir != "/tmp/out" {
		t.Fatalf("strings not applied: %+v", cfg)
	}
	if cfg.Concurrency != 9 || cfg.Rate != 2.5 {
		t.Fatalf("numbers not applied: %d %g", cfg.Concurrency, cfg.Rate)
	}
	if strings.Join(cfg.Tags, "|") != "keter|euclid" {
		t.Fatalf("tags = %v", cfg.Tags)
	}
	if !cfg.Dataset || cfg.DriveCopy {
		t.Fatalf("booleans not applied: dataset=%v drive=%v", cfg.Dataset, cfg.DriveCopy)
	}
}

func TestApplyEnvOverrides_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SCP_CONCURRENCY", "many")
	t.Setenv("SCP_RATE", "-1")
	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.Concurrency != defaultConcurrency || cfg.Rate != 0 {
		t.Fatalf("invalid values applied: %d %g", cfg.Concurrency, cfg.Rate)
	}
}

func TestLoadConfigFile_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "scp.yaml")
	if err := os.WriteFile(yml, []byte(`
baseURL: http://yaml.example
start: 100
end: 200
output:
  dir: out
  tags: [safe]
  dataset: true
fetch:
  concurrency: 2
  timeout: 3s
cache:
  maxAge: 24h
drive:
  mount: /mnt/drive
`), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	fc, err := LoadConfigFile(yml)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.BaseURL != "http://yaml.example" || cfg.Start != 100 || cfg.End != 200 {
		t.Fatalf("top-level not applied: %+v", cfg)
	}
	if cfg.OutputDir != "out" || !cfg.Dataset || len(cfg.Tags) != 1 {
		t.Fatalf("output not applied: %+v", cfg)
	}
	if cfg.Concurrency != 2 || cfg.Timeout != 3*time.Second || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("fetch/cache not applied: %+v", cfg)
	}
	if cfg.DriveMount != "/mnt/drive" {
		t.Fatalf("drive mount = %q", cfg.DriveMount)
	}

	js := filepath.Join(dir, "scp.json")
	if err := os.WriteFile(js, []byte(`{"start": 0, "end": 5, "output": {"dir": "j"}}`), 0o600); err != nil {
		t.Fatalf("write json: %v", err)
	}
	fc, err = LoadConfigFile(js)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	cfg = DefaultConfig()
	cfg.Start = 7
	ApplyFileConfig(&cfg, fc)
	if cfg.Start != 0 || cfg.End != 5 || cfg.OutputDir != "j" {
		t.Fatalf("json not applied: %+v", cfg)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("unset field overwritten: %q", cfg.BaseURL)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cases := map[string]func(*Config){
		"negative start": func(c *Config) { c.Start = -1 },
		"end before":     func(c *Config) { c.Start, c.End = 5, 4 },
		"zero workers":   func(c *Config) { c.Concurrency = 0 },
		"negative rate":  func(c *Config) { c.Rate = -1 },
		"no output":      func(c *Config) { c.OutputDir = "" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := ValidateConfig(cfg); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDefaultCacheDir(t *testing.T) {
	if got := DefaultCacheDir(); filepath.Base(got) != "scpscraper" {
		t.Fatalf("cache dir = %q", got)
	}
}
