// Package models defines records, run bookkeeping and configuration.
package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration. Values come from (in increasing priority)
// built-in defaults, an optional YAML file, the environment (.env included) and CLI flags.
type Config struct {
	Mode      string       `yaml:"mode"`
	StartPath string       `yaml:"start_path"` // listing pager URL; "&pn=N" is appended per page
	BasePath  string       `yaml:"base_path"`  // prefix for relative detail links
	Store     StoreConfig  `yaml:"store"`
	HTTP      HTTPConfig   `yaml:"http"`
	Crawl     CrawlConfig  `yaml:"crawl"`
	Enrich    EnrichConfig `yaml:"enrich"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"` // sqlite | mongo
	SQLitePath string `yaml:"sqlite_path"`
	MongoURI   string `yaml:"mongo_uri"`
	Database   string `yaml:"database"`
	Listings   string `yaml:"listings"`
	Details    string `yaml:"details"`
	State      string `yaml:"state"`
	Runs       string `yaml:"runs"`
}

type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"` // detail fetches only
	RetryDelay time.Duration `yaml:"retry_delay"`
	MaxRPS     float64       `yaml:"max_rps"` // 0 disables the cap
	UserAgents []string      `yaml:"user_agents"`
	CacheDir   string        `yaml:"cache_dir"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type CrawlConfig struct {
	Name     string        `yaml:"name"`
	DelayMin time.Duration `yaml:"delay_min"`
	DelayMax time.Duration `yaml:"delay_max"`
}

type EnrichConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	DelayMin          time.Duration `yaml:"delay_min"`
	DelayMax          time.Duration `yaml:"delay_max"`
	BatchPause        time.Duration `yaml:"batch_pause"`
	CountErrorBackoff time.Duration `yaml:"count_error_backoff"`
	BatchErrorBackoff time.Duration `yaml:"batch_error_backoff"`
	MaxBatchErrors    int           `yaml:"max_batch_errors"`
}

// DefaultUserAgents is the rotation list used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.2 Safari/605.1.15",
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Mode: string(RunModeListing),
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "estate-harvester.db",
			MongoURI:   "mongodb://localhost:27017",
			Database:   "suumo",
			Listings:   "listings",
			Details:    "details",
			State:      "scraper_state",
			Runs:       "crawl_runs",
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			Retries:    2,
			RetryDelay: time.Second,
			UserAgents: append([]string(nil), DefaultUserAgents...),
			CacheTTL:   time.Hour,
		},
		Crawl: CrawlConfig{
			Name:     DefaultCrawlName,
			DelayMin: 2 * time.Second,
			DelayMax: 3 * time.Second,
		},
		Enrich: EnrichConfig{
			BatchSize:         20,
			DelayMin:          2 * time.Second,
			DelayMax:          3 * time.Second,
			BatchPause:        2 * time.Second,
			CountErrorBackoff: 5 * time.Second,
			BatchErrorBackoff: 10 * time.Second,
			MaxBatchErrors:    5,
		},
	}
}

// LoadConfig builds a Config from defaults, the YAML file at path (optional when empty),
// a .env file in the working directory (if any) and the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Mode = envString("SCRAPER_MODE", c.Mode)
	c.StartPath = envString("START_PATH", c.StartPath)
	c.BasePath = envString("BASE_PATH", c.BasePath)

	c.Store.Driver = envString("STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = envString("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.MongoURI = envString("MONGO_URI", c.Store.MongoURI)
	c.Store.Database = envString("MONGO_DB_NAME", c.Store.Database)
	c.Store.Listings = envString("MONGO_COLLECTION_NAME", c.Store.Listings)
	c.Store.Details = envString("MONGO_COLLECTION_DETAILS", c.Store.Details)
	c.Store.State = envString("MONGO_COLLECTION_STATE", c.Store.State)
	c.Store.Runs = envString("MONGO_COLLECTION_RUNS", c.Store.Runs)

	c.Enrich.BatchSize = envInt("BATCH_SIZE", c.Enrich.BatchSize)
	c.HTTP.Retries = envInt("HTTP_RETRIES", c.HTTP.Retries)
}

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate rejects configurations that cannot produce a working run.
func (c *Config) Validate() error {
	if _, err := ResolveRunMode(c.Mode); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("unknown store driver %q (want sqlite or mongo)", c.Store.Driver)
	}
	for _, name := range []string{c.Store.Listings, c.Store.Details, c.Store.State, c.Store.Runs} {
		if !collectionNamePattern.MatchString(name) {
			return fmt.Errorf("invalid collection name %q", name)
		}
	}
	if c.Enrich.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", c.Enrich.BatchSize)
	}
	if c.Crawl.DelayMax < c.Crawl.DelayMin || c.Enrich.DelayMax < c.Enrich.DelayMin {
		return fmt.Errorf("delay_max must not be smaller than delay_min")
	}
	if c.HTTP.MaxRPS < 0 {
		return fmt.Errorf("max_rps must not be negative, got %v", c.HTTP.MaxRPS)
	}
	if c.HTTP.Retries < 0 {
		return fmt.Errorf("http retries must not be negative, got %d", c.HTTP.Retries)
	}
	return nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
