package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveRunMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    RunMode
		wantErr bool
	}{
		{raw: "", want: RunModeListing},
		{raw: "listing", want: RunModeListing},
		{raw: " Crawler ", want: RunModeListing},
		{raw: "detail", want: RunModeDetail},
		{raw: "detailCrawler", want: RunModeDetail},
		{raw: "ENRICH", want: RunModeDetail},
		{raw: "both", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ResolveRunMode(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveRunMode(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveRunMode(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCrawlState_ResumePage(t *testing.T) {
	var missing *CrawlState
	if got := missing.ResumePage(); got != 1 {
		t.Errorf("nil state ResumePage() = %d, want 1", got)
	}
	if got := (&CrawlState{LastCompletedPage: 4}).ResumePage(); got != 5 {
		t.Errorf("ResumePage() = %d, want 5", got)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCRAPER_MODE", "START_PATH", "BASE_PATH", "STORE_DRIVER", "SQLITE_PATH", "MONGO_URI",
		"MONGO_DB_NAME", "MONGO_COLLECTION_NAME", "MONGO_COLLECTION_DETAILS", "MONGO_COLLECTION_STATE",
		"MONGO_COLLECTION_RUNS", "BATCH_SIZE", "HTTP_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Listings != "listings" || cfg.Store.State != "scraper_state" {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	if cfg.Enrich.BatchSize != 20 || cfg.Enrich.MaxBatchErrors != 5 {
		t.Errorf("enrich defaults = %+v", cfg.Enrich)
	}
	if cfg.Crawl.Name != DefaultCrawlName || len(cfg.HTTP.UserAgents) != len(DefaultUserAgents) {
		t.Errorf("crawl/http defaults = %+v / %d agents", cfg.Crawl, len(cfg.HTTP.UserAgents))
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlConfig := `
mode: detail
start_path: https://suumo.example/jj/bukken/ichiran/?ar=030
store:
  driver: mongo
  database: estates
enrich:
  batch_size: 50
  delay_min: 1s
  delay_max: 1500ms
http:
  user_agents:
    - test-agent
`
	if err := os.WriteFile(path, []byte(yamlConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("BATCH_SIZE", "7")
	t.Setenv("MONGO_DB_NAME", "from_env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Mode != "detail" || cfg.Store.Driver != "mongo" {
		t.Errorf("file values not applied: mode=%q driver=%q", cfg.Mode, cfg.Store.Driver)
	}
	if cfg.Enrich.BatchSize != 7 || cfg.Store.Database != "from_env" {
		t.Errorf("env should override the file: batch=%d db=%q", cfg.Enrich.BatchSize, cfg.Store.Database)
	}
	if cfg.Enrich.DelayMin != time.Second || cfg.Enrich.DelayMax != 1500*time.Millisecond {
		t.Errorf("delays = %v-%v", cfg.Enrich.DelayMin, cfg.Enrich.DelayMax)
	}
	if len(cfg.HTTP.UserAgents) != 1 || cfg.HTTP.UserAgents[0] != "test-agent" {
		t.Errorf("UserAgents = %v", cfg.HTTP.UserAgents)
	}
	// untouched keys keep their defaults
	if cfg.Store.Details != "details" || cfg.Enrich.BatchPause != 2*time.Second {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() should fail for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "sideways" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "postgres" }},
		{name: "bad collection name", mutate: func(c *Config) { c.Store.Listings = "listings; DROP TABLE x" }},
		{name: "zero batch size", mutate: func(c *Config) { c.Enrich.BatchSize = 0 }},
		{name: "inverted delay window", mutate: func(c *Config) { c.Crawl.DelayMax = c.Crawl.DelayMin - time.Second }},
		{name: "negative retries", mutate: func(c *Config) { c.HTTP.Retries = -1 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}
