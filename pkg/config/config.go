// Package config loads cratedeps settings from a TOML file.
//
// # Location
//
// The file is read from the path given with --config, else from
// $XDG_CONFIG_HOME/cratedeps/config.toml (~/.config/cratedeps/config.toml).
// A missing default file is not an error; every field has a default.
//
// # Example
//
//	[resolver]
//	max_depth = 30
//	max_nodes = 2000
//	workers = 16
//	kinds = ["normal", "build"]
//
//	[registry]
//	backend = "sqlite"           # cratesio | sqlite | fixture
//	database = "/data/crates.db"
//
//	[cache]
//	backend = "redis"            # file | redis | none
//	ttl = "12h"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
// Command-line flags override file values.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/integrations/crates"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

const appName = "cratedeps"

// Registry backends.
const (
	RegistryCratesIO = "cratesio"
	RegistrySQLite   = "sqlite"
	RegistryFixture  = "fixture"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultCacheTTL is how long registry responses and graphs are kept.
const DefaultCacheTTL = 24 * time.Hour

// Config is the full configuration file.
type Config struct {
	Resolver Resolver `toml:"resolver"`
	Registry Registry `toml:"registry"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Resolver maps onto deps.Options.
type Resolver struct {
	MaxDepth int      `toml:"max_depth"`
	MaxNodes int      `toml:"max_nodes"`
	Workers  int      `toml:"workers"`
	Kinds    []string `toml:"kinds"`
}

// Registry selects and configures the metadata source.
type Registry struct {
	Backend   string `toml:"backend"`
	URL       string `toml:"url"`
	UserAgent string `toml:"user_agent"`
	Database  string `toml:"database"`
	Fixture   string `toml:"fixture"`
}

// Cache selects and configures the response cache.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// Server configures `cratedeps serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("12h").
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Resolver: Resolver{
			MaxDepth: deps.DefaultMaxDepth,
			MaxNodes: deps.DefaultMaxNodes,
			Workers:  deps.DefaultWorkers,
			Kinds:    registry.DefaultKinds.Strings(),
		},
		Registry: Registry{
			Backend: RegistryCratesIO,
			URL:     crates.DefaultBaseURL,
		},
		Cache: Cache{
			Backend:   CacheFile,
			TTL:       Duration{DefaultCacheTTL},
			RedisAddr: "localhost:6379",
		},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath, and
// a missing default file yields Default(). An explicitly named file must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// DefaultPath returns $XDG_CONFIG_HOME/cratedeps/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/cratedeps (~/.cache/cratedeps).
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Validate rejects unknown backends, unknown kinds and negative limits.
func (c Config) Validate() error {
	switch c.Registry.Backend {
	case RegistryCratesIO:
	case RegistrySQLite:
		if c.Registry.Database == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "registry backend sqlite needs registry.database")
		}
	case RegistryFixture:
		if c.Registry.Fixture == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "registry backend fixture needs registry.fixture")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown registry backend %q", c.Registry.Backend)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone, CacheRedis:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}

	if c.Resolver.MaxDepth < 0 || c.Resolver.MaxNodes < 0 || c.Resolver.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolver limits must not be negative")
	}
	if _, err := c.Kinds(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolver.kinds")
	}
	return nil
}

// Kinds parses Resolver.Kinds. An empty list means registry.DefaultKinds.
func (c Config) Kinds() (registry.KindSet, error) {
	return registry.ParseKinds(strings.Join(c.Resolver.Kinds, ","))
}

// ResolverOptions converts the resolver section to deps.Options.
// Kinds must already have passed Validate.
func (c Config) ResolverOptions() deps.Options {
	kinds, _ := c.Kinds()
	return deps.Options{
		MaxDepth: c.Resolver.MaxDepth,
		MaxNodes: c.Resolver.MaxNodes,
		Workers:  c.Resolver.Workers,
		Kinds:    kinds,
	}
}

// Describe renders the effective configuration as TOML.
func (c Config) Describe() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
