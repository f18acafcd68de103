package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Runtime struct {
	HTTPAddr       string
	CacheMaxItems  int
	MaxAssignments int64
	TimeBudget     time.Duration
	ObsBuffer      int
	LogLevel       string
	MetricsEnabled bool
}

func Defaults() Runtime {
	return Runtime{
		HTTPAddr:       ":8080",
		CacheMaxItems:  1024,
		MaxAssignments: 1 << 24,
		TimeBudget:     2 * time.Second,
		ObsBuffer:      4096,
		LogLevel:       "info",
		MetricsEnabled: true,
	}
}

// Load reads the runtime configuration from the environment. Unset or
// invalid values fall back to their defaults.
func Load() Runtime {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile overlays a YAML file on the defaults, then the environment on top.
// Keys match the environment variable names in lower case, e.g.
// query_time_budget: 500ms.
func LoadFile(path string) (Runtime, error) {
	cfg := Defaults()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	if k.Exists("http_addr") {
		cfg.HTTPAddr = k.String("http_addr")
	}
	if k.Exists("network_cache_max_items") {
		cfg.CacheMaxItems = k.Int("network_cache_max_items")
	}
	if k.Exists("query_max_assignments") {
		cfg.MaxAssignments = k.Int64("query_max_assignments")
	}
	if k.Exists("query_time_budget") {
		d, err := time.ParseDuration(k.String("query_time_budget"))
		if err != nil {
			return cfg, fmt.Errorf("invalid query_time_budget in %q: %w", path, err)
		}
		cfg.TimeBudget = d
	}
	if k.Exists("obs_buffer") {
		cfg.ObsBuffer = k.Int("obs_buffer")
	}
	if k.Exists("log_level") {
		cfg.LogLevel = k.String("log_level")
	}
	if k.Exists("metrics_enabled") {
		cfg.MetricsEnabled = k.Bool("metrics_enabled")
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config in %q: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Runtime) applyEnv() {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.CacheMaxItems = getenvInt("NETWORK_CACHE_MAX_ITEMS", c.CacheMaxItems, 1)
	c.MaxAssignments = int64(getenvInt("QUERY_MAX_ASSIGNMENTS", int(c.MaxAssignments), 0))
	c.TimeBudget = getenvDuration("QUERY_TIME_BUDGET", c.TimeBudget)
	c.ObsBuffer = getenvInt("OBS_BUFFER", c.ObsBuffer, 1)
	c.LogLevel = strings.ToLower(getenv("LOG_LEVEL", c.LogLevel))
	c.MetricsEnabled = getenvBool("METRICS_ENABLED", c.MetricsEnabled)
}

func (c Runtime) validate() error {
	switch {
	case c.CacheMaxItems < 1:
		return fmt.Errorf("network_cache_max_items must be >= 1")
	case c.MaxAssignments < 0:
		return fmt.Errorf("query_max_assignments must be >= 0")
	case c.TimeBudget < 0:
		return fmt.Errorf("query_time_budget must be >= 0")
	case c.ObsBuffer < 1:
		return fmt.Errorf("obs_buffer must be >= 1")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getenvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
