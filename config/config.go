package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath           string
	DatabaseURL      string
	IdentityStrategy string
	LogLevel         string
	LogPath          string
	Scheduler        SchedulerConfig
	Ingest           IngestConfig
	Archive          ArchiveConfig
	Targets          map[string]*TargetConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type IngestConfig struct {
	DelayMS      int
	FetchTimeout time.Duration
}

// ArchiveConfig controls raw page archiving to S3-compatible storage.
// Disabled when the bucket is empty.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// TargetConfig describes one region to scrape: the page URL template (with a
// {page} placeholder) and how many pages to walk.
type TargetConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	StateAbbr  string `yaml:"state_abbr"`
	SourceName string `yaml:"source_name"`
	PageURL    string `yaml:"page_url"`
	Pages      int    `yaml:"pages"`
	DelayMS    int    `yaml:"delay_ms"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:           getEnv("DB_PATH", "propwatch.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		IdentityStrategy: os.Getenv("IDENTITY_STRATEGY"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPath:          os.Getenv("LOG_PATH"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("INGEST_CRON"),
		},
		Ingest: IngestConfig{
			DelayMS:      getEnvInt("INGEST_DELAY_MS", 500),
			FetchTimeout: 30 * time.Second,
		},
		Archive: ArchiveConfig{
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			Region:          getEnv("ARCHIVE_REGION", "us-east-1"),
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
		},
		Targets: make(map[string]*TargetConfig),
	}

	if interval := os.Getenv("INGEST_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}
	if timeout := os.Getenv("FETCH_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err == nil {
			cfg.Ingest.FetchTimeout = d
		}
	}

	if err := cfg.loadTargetConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadTargetConfigs() error {
	configDir := "config/targets"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var target TargetConfig
		if err := yaml.Unmarshal(data, &target); err != nil {
			return err
		}

		c.Targets[target.ID] = &target
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
