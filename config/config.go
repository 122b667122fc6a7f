// Package config loads taggraph's settings: built-in defaults, overridden by
// a yaml file, overridden by TAGGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amonks/taggraph/fetcher"
	"github.com/amonks/taggraph/lastfm"
	"github.com/amonks/taggraph/logging"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar names a config file to use instead of DefaultPath.
	PathEnvVar  = "TAGGRAPH_CONFIG"
	DefaultPath = "taggraph.yaml"

	envPrefix = "TAGGRAPH_"
)

type Config struct {
	// path to the sqlite database
	DB string `koanf:"db" validate:"required"`

	LastFM  LastFM         `koanf:"lastfm"`
	Cache   Cache          `koanf:"cache"`
	Crawl   Crawl          `koanf:"crawl"`
	Logging logging.Config `koanf:"logging"`
	Metrics Metrics        `koanf:"metrics"`
}

type LastFM struct {
	// Also read from LASTFM_API_KEY. Only commands that talk to Last.fm
	// need it.
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// at most RateLimit requests per RateWindow
	RateLimit  int           `koanf:"rate_limit" validate:"gte=1"`
	RateWindow time.Duration `koanf:"rate_window" validate:"gt=0"`

	PageCap int `koanf:"page_cap" validate:"gte=1"`
}

type Cache struct {
	// If set, responses are cached on disk here. Otherwise they're cached
	// in memory for the life of the process.
	Dir string `koanf:"dir"`
}

type Crawl struct {
	Letters      int      `koanf:"letters" validate:"gte=1,lte=26"`
	Countries    []string `koanf:"countries" validate:"dive,required"`
	SearchLimit  int      `koanf:"search_limit" validate:"gte=1,lte=1000"`
	CountryLimit int      `koanf:"country_limit" validate:"gte=1,lte=1000"`
	BatchSize    int      `koanf:"batch_size" validate:"gte=1"`
}

type Metrics struct {
	// like "localhost:9090"; no metrics server if empty
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

func Default() Config {
	return Config{
		DB: "taggraph.db",
		LastFM: LastFM{
			BaseURL:    lastfm.DefaultBaseURL,
			Timeout:    lastfm.DefaultTimeout,
			RateLimit:  4,
			RateWindow: time.Second,
			PageCap:    lastfm.DefaultPageCap,
		},
		Crawl: Crawl{
			Letters:      5,
			Countries:    fetcher.DefaultCountries,
			SearchLimit:  50,
			CountryLimit: 20,
			BatchSize:    20,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads the configuration. If path is empty, we use $TAGGRAPH_CONFIG,
// or taggraph.yaml if it exists. A .env file in the working directory is
// loaded into the environment first.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("error loading defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error loading config file '%s': %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("error loading environment: %w", err)
	}
	if err := splitList(k, "crawl.countries"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.LastFM.APIKey == "" {
		cfg.LastFM.APIKey = os.Getenv("LASTFM_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findFile() string {
	if path := os.Getenv(PathEnvVar); path != "" {
		return path
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// envKey maps TAGGRAPH_LASTFM__API_KEY to lastfm.api_key.
func envKey(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// splitList turns a comma-separated string, as it comes from the
// environment, into a list.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("error setting '%s': %w", path, err)
	}
	return nil
}

var validate = validator.New()

func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireAPIKey reports an error if no Last.fm API key is configured.
func (cfg Config) RequireAPIKey() error {
	if cfg.LastFM.APIKey == "" {
		return fmt.Errorf("no last.fm api key; set TAGGRAPH_LASTFM__API_KEY or LASTFM_API_KEY")
	}
	return nil
}
