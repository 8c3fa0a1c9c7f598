// Package config loads singleline settings from a TOML file, a .env file
// and SINGLELINE_* environment variables, in increasing precedence.
//
// A config file looks like:
//
//	[server]
//	addr = ":8080"
//	allowed_origins = ["http://localhost:5173"]
//
//	[cache]
//	backend = "redis"
//	ttl = "12h"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[profiles]
//	files = ["~/fleet-chargers.toml"]
//
//	[diagram]
//	legend = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "singleline"

// Backends.
const (
	BackendFile  = "file"
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Defaults.
const (
	DefaultAddr          = ":8080"
	DefaultCacheTTL      = 24 * time.Hour
	DefaultMongoDatabase = "singleline"
	DefaultCollection    = "surveys"
)

// Config is the full settings tree.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Profiles ProfilesConfig `toml:"profiles"`
	Diagram  DiagramConfig  `toml:"diagram"`

	// Path is the file the config was read from, if any.
	Path string `toml:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `toml:"addr"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
}

// StoreConfig selects where surveys are persisted.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ProfilesConfig lists charger-profile catalog files layered over the
// built-in catalog.
type ProfilesConfig struct {
	Files []string `toml:"files"`
}

// DiagramConfig holds default diagram options.
type DiagramConfig struct {
	Title  string  `toml:"title"`
	Legend bool    `toml:"legend"`
	Scale  float64 `toml:"scale"`
}

// DefaultPath returns ~/.config/singleline/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path, then .env, then the environment, and applies defaults.
// An empty path uses [DefaultPath] and tolerates its absence; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		cfg.Path = path
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses TOML text without touching the environment.
func Decode(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SINGLELINE_* variables read with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv("SINGLELINE_" + key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := getenv("SINGLELINE_" + key); v != "" {
			*dst = splitList(v)
		}
	}

	str("ADDR", &c.Server.Addr)
	list("ALLOWED_ORIGINS", &c.Server.AllowedOrigins)

	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	if v := getenv("SINGLELINE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SINGLELINE_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	if v := getenv("SINGLELINE_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SINGLELINE_REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = n
	}

	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("MONGO_URI", &c.Store.MongoURI)
	str("MONGO_DATABASE", &c.Store.MongoDatabase)

	list("PROFILES", &c.Profiles.Files)
	return nil
}

// ValidateAndSetDefaults fills unset fields and rejects unknown backends.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = BackendFile
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache: redis backend needs redis_addr")
		}
	default:
		return fmt.Errorf("cache: unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache: negative ttl %s", c.Cache.TTL)
	}
	if c.Cache.Dir == "" {
		dir, err := defaultDir(".cache")
		if err != nil {
			return err
		}
		c.Cache.Dir = dir
	}

	switch c.Store.Backend {
	case "":
		c.Store.Backend = BackendFile
	case BackendFile:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New("store: mongo backend needs mongo_uri")
		}
	default:
		return fmt.Errorf("store: unknown backend %q (want file or mongo)", c.Store.Backend)
	}
	if c.Store.Dir == "" {
		dir, err := defaultDir(filepath.Join(".local", "share"))
		if err != nil {
			return err
		}
		c.Store.Dir = filepath.Join(dir, "surveys")
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = DefaultMongoDatabase
	}
	if c.Store.MongoCollection == "" {
		c.Store.MongoCollection = DefaultCollection
	}

	for i, f := range c.Profiles.Files {
		c.Profiles.Files[i] = expandHome(f)
	}
	if c.Diagram.Scale < 0 {
		return fmt.Errorf("diagram: negative scale %g", c.Diagram.Scale)
	}
	c.Cache.Dir = expandHome(c.Cache.Dir)
	c.Store.Dir = expandHome(c.Store.Dir)
	return nil
}

func defaultDir(under string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, under, appName), nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
