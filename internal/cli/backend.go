package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/buildinfo"
	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/config"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/integrations/crates"
	"github.com/matzehuels/cratedeps/pkg/pipeline"
	"github.com/matzehuels/cratedeps/pkg/registry"
	"github.com/matzehuels/cratedeps/pkg/registry/sqlstore"
)

// backendOpts holds the flags that pick a registry and a cache. Empty
// values leave the config file's choice in place.
type backendOpts struct {
	registry string
	url      string
	db       string
	fixture  string
	noCache  bool
	refresh  bool
}

func (o *backendOpts) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.registry, "registry", "", "registry backend: cratesio, sqlite or fixture")
	f.StringVar(&o.url, "url", "", "crates.io API base URL")
	f.StringVar(&o.db, "db", "", "SQLite database of a crates.io dump (implies --registry sqlite)")
	f.StringVar(&o.fixture, "fixture", "", "TOML fixture registry (implies --registry fixture)")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the response cache")
	f.BoolVar(&o.refresh, "refresh", false, "ignore cached entries and fetch fresh data")
}

// apply overlays the flags on cfg.
func (o *backendOpts) apply(cfg *config.Config) {
	if o.db != "" {
		cfg.Registry.Backend = config.RegistrySQLite
		cfg.Registry.Database = o.db
	}
	if o.fixture != "" {
		cfg.Registry.Backend = config.RegistryFixture
		cfg.Registry.Fixture = o.fixture
	}
	if o.registry != "" {
		cfg.Registry.Backend = o.registry
	}
	if o.url != "" {
		cfg.Registry.URL = o.url
	}
	if o.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
}

// openRegistry builds the registry backend named by cfg. The returned
// close function releases database handles.
func openRegistry(ctx context.Context, cfg config.Config) (registry.Registry, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Registry.Backend {
	case config.RegistryCratesIO:
		ua := cfg.Registry.UserAgent
		if ua == "" {
			ua = buildinfo.UserAgent()
		}
		return crates.NewClient(crates.Options{BaseURL: cfg.Registry.URL, UserAgent: ua}), nop, nil
	case config.RegistrySQLite:
		store, err := sqlstore.Open(ctx, cfg.Registry.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return store, store.Close, nil
	case config.RegistryFixture:
		m, err := registry.LoadFixture(cfg.Registry.Fixture)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "load fixture %s", cfg.Registry.Fixture)
		}
		return m, nop, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "unknown registry backend %q", cfg.Registry.Backend)
	}
}

// openCache builds the cache backend named by cfg.
func openCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   appName + ":",
		})
	default:
		if cfg.Cache.Dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// newRunner creates a pipeline runner over the configured cache. Keys are
// scoped by the registry source so that two databases or fixtures never
// share entries.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	ch, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), registryScope(cfg))
	runner := pipeline.NewRunner(ch, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL.Duration
	return runner, nil
}

// setup loads the config, applies o and opens the registry and runner.
func (c *CLI) setup(ctx context.Context, o *backendOpts, overlay func(*config.Config)) (config.Config, registry.Registry, *pipeline.Runner, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return cfg, nil, nil, nil, err
	}
	o.apply(&cfg)
	if overlay != nil {
		overlay(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, nil, err
	}

	reg, closeReg, err := openRegistry(ctx, cfg)
	if err != nil {
		return cfg, nil, nil, nil, err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		closeReg()
		return cfg, nil, nil, nil, err
	}
	cleanup := func() {
		if err := runner.Close(); err != nil {
			c.Logger.Debug("close cache", "err", err)
		}
		if err := closeReg(); err != nil {
			c.Logger.Debug("close registry", "err", err)
		}
	}
	c.Logger.Debug("backends ready", "registry", reg.Name(), "cache", cfg.Cache.Backend)
	return cfg, reg, runner, cleanup, nil
}

// registryScope is a short key prefix identifying the registry source.
func registryScope(cfg config.Config) string {
	var source string
	switch cfg.Registry.Backend {
	case config.RegistrySQLite:
		source = cfg.Registry.Database
	case config.RegistryFixture:
		source = cfg.Registry.Fixture
	default:
		source = cfg.Registry.URL
	}
	return cache.Hash([]byte(cfg.Registry.Backend+"\x00"+source))[:12] + ":"
}
