// Package config loads authornet settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, $XDG_CONFIG_HOME/authornet/config.toml unless a path is given
//  3. AUTHORNET_* environment variables, after loading a .env file if present
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/layout"
	"github.com/matzehuels/authornet/pkg/session"
)

const appName = "authornet"

// Environment variables read by [Load].
const (
	EnvAddr           = "AUTHORNET_ADDR"
	EnvSessionBackend = "AUTHORNET_SESSION_BACKEND"
	EnvSessionDir     = "AUTHORNET_SESSION_DIR"
	EnvRedisAddr      = "AUTHORNET_REDIS_ADDR"
	EnvMongoURI       = "AUTHORNET_MONGO_URI"
	EnvSQLitePath     = "AUTHORNET_SQLITE_PATH"
	EnvCacheBackend   = "AUTHORNET_CACHE_BACKEND"
	EnvCacheDir       = "AUTHORNET_CACHE_DIR"
	EnvEventRate      = "AUTHORNET_EVENT_RATE"
)

// Cache backends.
const (
	CacheNull  = "null"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config holds authornet configuration.
type Config struct {
	Server  ServerConfig   `toml:"server"`
	Layout  layout.Options `toml:"layout"`
	Session SessionConfig  `toml:"session"`
	Cache   CacheConfig    `toml:"cache"`
	Render  RenderConfig   `toml:"render"`
}

// ServerConfig controls the HTTP and websocket service.
type ServerConfig struct {
	Addr           string   `toml:"addr" validate:"required"`
	TickInterval   Duration `toml:"tick_interval"`
	EventRate      float64  `toml:"event_rate" validate:"gt=0"`
	EventBurst     int      `toml:"event_burst" validate:"gt=0"`
	MaxSessions    int      `toml:"max_sessions" validate:"gte=0"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	session.Config
	TTL Duration `toml:"ttl"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend   string `toml:"backend" validate:"oneof=null file redis"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
}

// RenderConfig holds static export defaults.
type RenderConfig struct {
	Ticks        int  `toml:"ticks" validate:"gte=0"`
	Labels       bool `toml:"labels"`
	HideFiltered bool `toml:"hide_filtered"`
}

// Duration is a time.Duration written as a string ("16ms") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			TickInterval: Duration{16 * time.Millisecond},
			EventRate:    60,
			EventBurst:   120,
			MaxSessions:  100,
		},
		Layout: layout.DefaultOptions(),
		Session: SessionConfig{
			Config: session.Config{Backend: session.BackendFile},
			TTL:    Duration{session.DefaultTTL},
		},
		Cache:  CacheConfig{Backend: CacheFile, Prefix: appName + ":"},
		Render: RenderConfig{Ticks: 300, Labels: true},
	}
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the config directory ($XDG_CONFIG_HOME/authornet).
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the cache directory ($XDG_CACHE_HOME/authornet).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the config file at path (or [Path] when empty), applies
// environment overrides and validates the result. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Session.Backend == session.BackendSQLite && cfg.Session.SQLitePath == "" {
		cfg.Session.SQLitePath = filepath.Join(Dir(), "sessions.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvAddr, &c.Server.Addr)
	set(EnvSessionBackend, &c.Session.Backend)
	set(EnvSessionDir, &c.Session.Dir)
	set(EnvRedisAddr, &c.Session.RedisAddr)
	set(EnvRedisAddr, &c.Cache.RedisAddr)
	set(EnvMongoURI, &c.Session.MongoURI)
	set(EnvSQLitePath, &c.Session.SQLitePath)
	set(EnvCacheBackend, &c.Cache.Backend)
	set(EnvCacheDir, &c.Cache.Dir)

	if v := os.Getenv(EnvEventRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvEventRate)
		}
		c.Server.EventRate = rate
	}
	return nil
}

// Save writes the config as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects unknown backends, missing backend settings and
// non-positive sizes.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", describe(err))
	}

	switch c.Layout.Engine {
	case layout.EngineForce, layout.EngineEades:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "layout.engine: unknown engine %q", c.Layout.Engine)
	}
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout: width and height must be positive")
	}
	if c.Server.TickInterval.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.tick_interval must be positive")
	}
	if c.Session.TTL.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "session.ttl must be positive")
	}

	switch c.Session.Backend {
	case session.BackendSQLite:
		if c.Session.SQLitePath == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "session.sqlite_path is required for the sqlite backend")
		}
	case session.BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "session.redis_addr is required for the redis backend")
		}
	case session.BackendMongo:
		if c.Session.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "session.mongo_uri is required for the mongo backend")
		}
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	return nil
}

// describe flattens validator field errors into one readable line.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid config"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: must satisfy %s=%s", name, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", name, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
