package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the collector service settings
type Config struct {
	HTTPPort string

	MongoURI  string
	MongoDB   string
	RedisAddr string

	CollectAPIURL string
	APITimeout    time.Duration
	APIMaxRetries int

	JWTSecret  string
	SessionTTL time.Duration
	InfoTTL    time.Duration

	Flow   string
	Locale string
}

// configFile mirrors the YAML layout of config.yaml
type configFile struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Collect struct {
		URL        string        `yaml:"url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"collect"`
	Session struct {
		TTL     time.Duration `yaml:"ttl"`
		InfoTTL time.Duration `yaml:"info_ttl"`
		Flow    string        `yaml:"flow"`
		Locale  string        `yaml:"locale"`
	} `yaml:"session"`
}

// Default returns the settings used when nothing overrides them
func Default() *Config {
	return &Config{
		HTTPPort:      "8080",
		MongoURI:      "mongodb://localhost:27017",
		MongoDB:       "commutesurvey",
		RedisAddr:     "localhost:6379",
		CollectAPIURL: "http://localhost:8000/collect",
		APITimeout:    10 * time.Second,
		APIMaxRetries: 3,
		SessionTTL:    24 * time.Hour,
		InfoTTL:       10 * time.Minute,
		Flow:          "default",
		Locale:        "fr",
	}
}

// Load resolves configuration: defaults, then the YAML file at path if it
// exists, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyFile(raw); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.HTTPPort = getEnv("PORT", cfg.HTTPPort)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGO_DB", cfg.MongoDB)
	cfg.RedisAddr = strings.TrimPrefix(getEnv("REDIS_URI", cfg.RedisAddr), "redis://")
	cfg.CollectAPIURL = getEnv("COLLECT_API_URL", cfg.CollectAPIURL)
	cfg.APITimeout = getEnvDuration("COLLECT_API_TIMEOUT", cfg.APITimeout)
	cfg.APIMaxRetries = getEnvInt("COLLECT_API_MAX_RETRIES", cfg.APIMaxRetries)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.InfoTTL = getEnvDuration("INFO_TTL", cfg.InfoTTL)
	cfg.Flow = getEnv("SURVEY_FLOW", cfg.Flow)
	cfg.Locale = getEnv("SURVEY_LOCALE", cfg.Locale)

	if cfg.JWTSecret == "" {
		return nil, errors.New("missing JWT_SECRET")
	}
	if cfg.CollectAPIURL == "" {
		return nil, errors.New("missing COLLECT_API_URL")
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	if f.Server.Port != "" {
		c.HTTPPort = f.Server.Port
	}
	if f.Mongo.URI != "" {
		c.MongoURI = f.Mongo.URI
	}
	if f.Mongo.Database != "" {
		c.MongoDB = f.Mongo.Database
	}
	if f.Redis.Addr != "" {
		c.RedisAddr = f.Redis.Addr
	}
	if f.Collect.URL != "" {
		c.CollectAPIURL = f.Collect.URL
	}
	if f.Collect.Timeout > 0 {
		c.APITimeout = f.Collect.Timeout
	}
	if f.Collect.MaxRetries > 0 {
		c.APIMaxRetries = f.Collect.MaxRetries
	}
	if f.Session.TTL > 0 {
		c.SessionTTL = f.Session.TTL
	}
	if f.Session.InfoTTL > 0 {
		c.InfoTTL = f.Session.InfoTTL
	}
	if f.Session.Flow != "" {
		c.Flow = f.Session.Flow
	}
	if f.Session.Locale != "" {
		c.Locale = f.Session.Locale
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
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}
