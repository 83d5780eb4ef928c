package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	PlannerBaseURL string
	PlannerTimeout time.Duration

	GeocodeURL             string
	GeocodeRegionQualifier string
	GeocodeUserAgent       string
	GeocodeTimeout         time.Duration

	WeatherURL     string
	WeatherTimeout time.Duration

	ShareBaseURL string

	RequestTimeout time.Duration
	CacheBackend   string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Planner struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"planner"`

	Geocode struct {
		URL             string `yaml:"url"`
		RegionQualifier string `yaml:"region_qualifier"`
		UserAgent       string `yaml:"user_agent"`
		Timeout         string `yaml:"timeout"`
	} `yaml:"geocode"`

	Weather struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather"`

	Share struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"share"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend   string `yaml:"backend"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), then
// applies env overrides. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.PlannerBaseURL = strings.TrimSpace(os.Getenv("PLANNER_BASE_URL"))
	if cfg.PlannerBaseURL == "" {
		cfg.PlannerBaseURL = fc.Planner.URL
	}
	if cfg.PlannerBaseURL == "" {
		return nil, fmt.Errorf("planner.url required (or PLANNER_BASE_URL env)")
	}
	cfg.PlannerBaseURL = strings.TrimRight(cfg.PlannerBaseURL, "/")
	cfg.PlannerTimeout = parseDuration(fc.Planner.Timeout, 30*time.Second)

	cfg.GeocodeURL = fc.Geocode.URL
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = "https://nominatim.openstreetmap.org/search"
	}
	cfg.GeocodeRegionQualifier = fc.Geocode.RegionQualifier
	if cfg.GeocodeRegionQualifier == "" {
		cfg.GeocodeRegionQualifier = "Karnataka, India"
	}
	cfg.GeocodeUserAgent = fc.Geocode.UserAgent
	if cfg.GeocodeUserAgent == "" {
		cfg.GeocodeUserAgent = "hangout-planner/1.0"
	}
	cfg.GeocodeTimeout = parseDuration(fc.Geocode.Timeout, 3*time.Second)

	cfg.WeatherURL = fc.Weather.URL
	if cfg.WeatherURL == "" {
		cfg.WeatherURL = "https://api.open-meteo.com/v1/forecast"
	}
	cfg.WeatherTimeout = parseDuration(fc.Weather.Timeout, 3*time.Second)

	cfg.ShareBaseURL = strings.TrimSpace(os.Getenv("SHARE_BASE_URL"))
	if cfg.ShareBaseURL == "" {
		cfg.ShareBaseURL = fc.Share.BaseURL
	}
	if cfg.ShareBaseURL == "" {
		cfg.ShareBaseURL = "http://localhost:" + cfg.ServerPort
	}
	cfg.ShareBaseURL = strings.TrimRight(cfg.ShareBaseURL, "/")

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 60*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.RequestTimeout <= cfg.PlannerTimeout {
		cfg.RequestTimeout = cfg.PlannerTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	return nil
}
