package config

import (
	"context"
	"fmt"

	"github.com/evsingleline/singleline/pkg/cache"
	"github.com/evsingleline/singleline/pkg/profile"
	"github.com/evsingleline/singleline/pkg/store"
)

// OpenCache returns the configured cache backend. The file backend creates
// its directory; the redis backend pings the server.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   appName + ":",
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file cache: %w", err)
		}
		return fc, nil
	}
}

// OpenStore returns the configured survey store.
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	if c.Store.Backend == BackendMongo {
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        c.Store.MongoURI,
			Database:   c.Store.MongoDatabase,
			Collection: c.Store.MongoCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return ms, nil
	}
	fs, err := store.NewFileStore(c.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}
	return fs, nil
}

// Catalog returns the built-in charger profiles with each configured file
// layered on top in order.
func (c *Config) Catalog() (*profile.Catalog, error) {
	cat := profile.Default()
	for _, path := range c.Profiles.Files {
		extra, err := profile.Load(path)
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(extra)
	}
	return cat, nil
}
