package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

const fileName = "fetchcache.yaml"

type Cache struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
	// WritePolicy is "none", "through" or "back".
	WritePolicy string `yaml:"write_policy"`
	WriteBuffer int    `yaml:"write_buffer"`
}

type Retry struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

type HTTP struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

type Snapshot struct {
	Dir      string        `yaml:"dir"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type Type struct {
	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`

	// Base is where site documents live: a directory, an http(s) URL or
	// an s3:// prefix.
	Base     string   `yaml:"base"`
	Cache    Cache    `yaml:"cache"`
	Retry    Retry    `yaml:"retry"`
	HTTP     HTTP     `yaml:"http"`
	Snapshot Snapshot `yaml:"snapshot"`
	Region   string   `yaml:"region"`
	Metrics  string   `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is found.
func Default() Type {
	return Type{
		Base: ".",
		Cache: Cache{
			Capacity:    50,
			TTL:         5 * time.Minute,
			WritePolicy: "none",
			WriteBuffer: 64,
		},
		Retry: Retry{
			Attempts: 3,
			Delay:    time.Second,
		},
		HTTP: HTTP{
			Timeout: 30 * time.Second,
		},
	}
}

/*
Load reads the config file over the defaults. With no path, the file is
looked up in FETCHCACHE_CONFIG, then $XDG_CONFIG_HOME, $APPDATA and $HOME;
finding none is not an error. An explicit path must exist.
*/
func Load(path string) (Type, error) {
	cfg := Default()

	if path == "" {
		path = findConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg Type) Validate() error {
	var errs []error
	if cfg.Cache.Capacity < 0 {
		errs = append(errs, errors.New("cache.capacity must not be negative"))
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	switch cfg.Cache.WritePolicy {
	case "", "none", "through", "back":
	default:
		errs = append(errs, fmt.Errorf("unknown cache.write_policy %q", cfg.Cache.WritePolicy))
	}
	if cfg.Cache.WritePolicy == "back" && cfg.Cache.WriteBuffer < 1 {
		errs = append(errs, errors.New("cache.write_buffer must be at least 1 for write_policy back"))
	}
	if cfg.Retry.Attempts < 1 {
		errs = append(errs, errors.New("retry.attempts must be at least 1"))
	}
	return errors.Join(errs...)
}

func findConfigPath() string {
	if p := os.Getenv("FETCHCACHE_CONFIG"); p != "" {
		return p
	}

	candidates := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, fileName)
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			log.Debugf("using config file: %s", file)
			return file
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warnf("skipping config candidate %s", file)
		}
	}
	return ""
}
