package config

import (
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Model    ModelConfig    `koanf:"model"`
	Face     FaceConfig     `koanf:"face"`
	Search   SearchConfig   `koanf:"search"`
	Scraper  ScraperConfig  `koanf:"scraper"`
	Cache    CacheConfig    `koanf:"cache"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	HTTPAddr        string        `koanf:"http_addr" validate:"required"`
	GRPCAddr        string        `koanf:"grpc_addr"`
	BodyLimit       int           `koanf:"body_limit" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type ModelConfig struct {
	Path         string `koanf:"path" validate:"required"`
	RuntimeLib   string `koanf:"runtime_lib"`
	InputName    string `koanf:"input_name" validate:"required"`
	OutputName   string `koanf:"output_name" validate:"required"`
	ApplySigmoid bool   `koanf:"apply_sigmoid"`
}

type FaceConfig struct {
	CascadePath  string  `koanf:"cascade_path" validate:"required"`
	ScaleFactor  float64 `koanf:"scale_factor" validate:"gt=1"`
	MinNeighbors int     `koanf:"min_neighbors" validate:"gte=0"`
	MinSize      int     `koanf:"min_size" validate:"gt=0"`
}

type SearchConfig struct {
	APIKey   string        `koanf:"api_key" validate:"required"`
	EngineID string        `koanf:"engine_id" validate:"required"`
	Site     string        `koanf:"site" validate:"required,hostname"`
	Endpoint string        `koanf:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `koanf:"timeout"`
}

type ScraperConfig struct {
	UserAgent    string        `koanf:"user_agent"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes" validate:"gt=0"`
	RateLimit    float64       `koanf:"rate_limit" validate:"gt=0"`
	Burst        int           `koanf:"burst" validate:"gt=0"`
	MaxRetries   uint64        `koanf:"max_retries"`
	Concurrency  int           `koanf:"concurrency" validate:"gt=0"`
	MaxPerBrand  int           `koanf:"max_per_brand" validate:"gt=0"`
}

type CacheConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

// DatabaseConfig enables the analysis history store when DSN is set.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8000",
			GRPCAddr:        ":8008",
			BodyLimit:       10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Model: ModelConfig{
			Path:         "models/skin-convnext-base.onnx",
			InputName:    "input",
			OutputName:   "logits",
			ApplySigmoid: true,
		},
		Face: FaceConfig{
			CascadePath:  "haarcascade_frontalface_default.xml",
			ScaleFactor:  1.1,
			MinNeighbors: 4,
			MinSize:      60,
		},
		Search: SearchConfig{
			Site:    "trendyol.com",
			Timeout: 10 * time.Second,
		},
		Scraper: ScraperConfig{
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			FetchTimeout: 10 * time.Second,
			MaxBodyBytes: 5 << 20,
			RateLimit:    4,
			Burst:        4,
			MaxRetries:   2,
			Concurrency:  4,
			MaxPerBrand:  2,
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
