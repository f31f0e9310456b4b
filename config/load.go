package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// EnvFiles are loaded into the process environment before anything else.
// Variables already set in the environment win.
var EnvFiles = []string{"keys.env", ".env"}

var envMappings = map[string]string{
	"http_addr":        "server.http_addr",
	"grpc_addr":        "server.grpc_addr",
	"body_limit":       "server.body_limit",
	"shutdown_timeout": "server.shutdown_timeout",

	"model_path":          "model.path",
	"onnxruntime_lib":     "model.runtime_lib",
	"model_input_name":    "model.input_name",
	"model_output_name":   "model.output_name",
	"model_apply_sigmoid": "model.apply_sigmoid",

	"cascade_path":       "face.cascade_path",
	"face_scale_factor":  "face.scale_factor",
	"face_min_neighbors": "face.min_neighbors",
	"face_min_size":      "face.min_size",

	"search_api_key":   "search.api_key",
	"search_engine_id": "search.engine_id",
	"search_site":      "search.site",
	"search_endpoint":  "search.endpoint",
	"search_timeout":   "search.timeout",

	"scraper_user_agent":    "scraper.user_agent",
	"scraper_fetch_timeout": "scraper.fetch_timeout",
	"scraper_rate_limit":    "scraper.rate_limit",
	"scraper_burst":         "scraper.burst",
	"scraper_max_retries":   "scraper.max_retries",
	"scraper_concurrency":   "scraper.concurrency",
	"scraper_max_per_brand": "scraper.max_per_brand",

	"cache_ttl": "cache.ttl",

	"database_dsn": "database.dsn",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing priority, then validates it.
func Load() (*Config, error) {
	if err := loadEnvFiles(EnvFiles); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadEnvFiles(paths []string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
