package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evsingleline/singleline/pkg/cache"
	"github.com/evsingleline/singleline/pkg/store"
)

func TestDecodeAndDefaults(t *testing.T) {
	cfg, err := Decode(`
[server]
addr = ":9090"
allowed_origins = ["http://localhost:5173"]

[cache]
ttl = "2h"

[store]
dir = "/tmp/surveys"

[diagram]
legend = true
scale = 3.0
`)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Cache.Backend != BackendFile || cfg.Store.Backend != BackendFile {
		t.Errorf("backends = %q/%q", cfg.Cache.Backend, cfg.Store.Backend)
	}
	if !strings.HasSuffix(cfg.Cache.Dir, filepath.Join(".cache", "singleline")) {
		t.Errorf("cache dir = %q", cfg.Cache.Dir)
	}
	if cfg.Store.Dir != "/tmp/surveys" || cfg.Store.MongoDatabase != DefaultMongoDatabase {
		t.Errorf("store = %+v", cfg.Store)
	}
	if !cfg.Diagram.Legend || cfg.Diagram.Scale != 3 {
		t.Errorf("diagram = %+v", cfg.Diagram)
	}
}

func TestEmptyDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != DefaultAddr || cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("defaults = %+v", cfg)
	}
	want := filepath.Join(".local", "share", "singleline", "surveys")
	if !strings.HasSuffix(cfg.Store.Dir, want) {
		t.Errorf("store dir = %q, want suffix %q", cfg.Store.Dir, want)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown cache", Config{Cache: CacheConfig{Backend: "memcached"}}},
		{"redis without addr", Config{Cache: CacheConfig{Backend: BackendRedis}}},
		{"negative ttl", Config{Cache: CacheConfig{TTL: -time.Second}}},
		{"unknown store", Config{Store: StoreConfig{Backend: "sqlite"}}},
		{"mongo without uri", Config{Store: StoreConfig{Backend: BackendMongo}}},
		{"negative scale", Config{Diagram: DiagramConfig{Scale: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SINGLELINE_ADDR":            "127.0.0.1:7000",
		"SINGLELINE_ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"SINGLELINE_CACHE_BACKEND":   "redis",
		"SINGLELINE_CACHE_TTL":       "90m",
		"SINGLELINE_REDIS_ADDR":      "redis:6379",
		"SINGLELINE_REDIS_DB":        "2",
		"SINGLELINE_STORE_BACKEND":   "mongo",
		"SINGLELINE_MONGO_URI":       "mongodb://db:27017",
		"SINGLELINE_PROFILES":        "a.toml,b.toml",
	}
	cfg := &Config{Server: ServerConfig{Addr: ":8080"}}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("origins = %q", got)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL != 90*time.Minute || cfg.Cache.RedisDB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if len(cfg.Profiles.Files) != 2 {
		t.Errorf("profiles = %q", cfg.Profiles.Files)
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Errorf("env config invalid: %v", err)
	}

	bad := &Config{}
	if err := bad.ApplyEnv(func(k string) string {
		if k == "SINGLELINE_CACHE_TTL" {
			return "soon"
		}
		return ""
	}); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SINGLELINE_ADDR", "")

	path := filepath.Join(dir, "config.toml")
	body := "[server]\naddr = \":7777\"\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path || cfg.Server.Addr != ":7777" || cfg.Cache.Backend != BackendNone {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("explicit missing path should fail")
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	if cfg, err = Load(""); err != nil {
		t.Fatalf("missing default config: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q for absent default", cfg.Path)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("SINGLELINE_ADDR", "")
	os.Unsetenv("SINGLELINE_ADDR")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SINGLELINE_ADDR=:6060\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":6060" {
		t.Errorf("addr = %q, want value from .env", cfg.Server.Addr)
	}
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Cache: CacheConfig{Dir: filepath.Join(dir, "cache")},
		Store: StoreConfig{Dir: filepath.Join(dir, "store")},
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("cache = %T, want *cache.FileCache", c)
	}

	s, err := cfg.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*store.FileStore); !ok {
		t.Errorf("store = %T, want *store.FileStore", s)
	}

	cfg.Cache.Backend = BackendNone
	if c, _ := cfg.OpenCache(ctx); c == nil {
		t.Error("nil null cache")
	}
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.toml")
	body := `
[[profile]]
id = "fleet-l2"
name = "Fleet Level 2"
level = "Level 2"
charger_amps = 32
ports = 2
recommended_breaker = 40
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{Profiles: ProfilesConfig{Files: []string{path}}}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Get("fleet-l2"); err != nil {
		t.Errorf("layered profile missing: %v", err)
	}
	if cat.Len() <= 1 {
		t.Errorf("built-in profiles dropped: %d", cat.Len())
	}

	cfg.Profiles.Files = []string{filepath.Join(dir, "missing.toml")}
	if _, err := cfg.Catalog(); err == nil {
		t.Error("expected error for missing catalog file")
	}
}
