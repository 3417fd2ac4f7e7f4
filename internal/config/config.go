package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"

	GalleryDir = "dir"
	GalleryGCS = "gcs"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	GinMode   string `env:"GIN_MODE" envDefault:"release"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	Pose    PoseConfig
	Routine RoutineConfig
	Gallery GalleryConfig
}

type PoseConfig struct {
	URL           string        `env:"POSE_SERVICE_URL" envDefault:"http://localhost:8500/v1/pose"`
	Timeout       time.Duration `env:"POSE_TIMEOUT" envDefault:"15s"`
	MaxImageBytes int64         `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
}

type RoutineConfig struct {
	Provider string        `env:"ROUTINE_PROVIDER" envDefault:"gemini"`
	Timeout  time.Duration `env:"ROUTINE_TIMEOUT" envDefault:"45s"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-lite"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

type GalleryConfig struct {
	Backend string `env:"GALLERY_BACKEND" envDefault:"dir"`
	Dir     string `env:"GALLERY_DIR" envDefault:"BodyType_Images"`
	Bucket  string `env:"GALLERY_BUCKET"`
	Prefix  string `env:"GALLERY_PREFIX" envDefault:"BodyType_Images"`
	Count   int    `env:"GALLERY_COUNT" envDefault:"2"`
}

// Load reads .env when present and parses the environment into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()
	return Parse()
}

// Parse reads Config from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Routine.Provider = strings.ToLower(strings.TrimSpace(c.Routine.Provider))
	switch c.Routine.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderNone:
	default:
		return fmt.Errorf("ROUTINE_PROVIDER must be one of gemini, openai, none; got %q", c.Routine.Provider)
	}

	c.Gallery.Backend = strings.ToLower(strings.TrimSpace(c.Gallery.Backend))
	switch c.Gallery.Backend {
	case GalleryDir:
	case GalleryGCS:
		if c.Gallery.Bucket == "" {
			return fmt.Errorf("GALLERY_BUCKET is required when GALLERY_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("GALLERY_BACKEND must be dir or gcs; got %q", c.Gallery.Backend)
	}

	if c.Gallery.Count <= 0 {
		return fmt.Errorf("GALLERY_COUNT must be positive; got %d", c.Gallery.Count)
	}
	if c.Pose.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive; got %d", c.Pose.MaxImageBytes)
	}
	return nil
}

// RoutineAPIKey returns the key for the selected routine provider.
func (c Config) RoutineAPIKey() string {
	switch c.Routine.Provider {
	case ProviderGemini:
		return c.Routine.GeminiAPIKey
	case ProviderOpenAI:
		return c.Routine.OpenAIAPIKey
	default:
		return ""
	}
}
