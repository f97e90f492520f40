package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all process-wide settings. It is constructed once at start
// and passed explicitly; nothing in the relay reads the environment after
// Load returns.
type Config struct {
	ClientID     string        `env:"QB_CLIENT_ID,required,notEmpty"`
	ClientSecret string        `env:"QB_CLIENT_SECRET,required,notEmpty"`
	Environment  string        `env:"QB_ENVIRONMENT" envDefault:"sandbox"`
	RedirectURI  string        `env:"QB_REDIRECT_URI,required,notEmpty"`
	HTTPTimeout  time.Duration `env:"QB_HTTP_TIMEOUT" envDefault:"30s"`
	Port         string        `env:"PORT" envDefault:"3000"`
	AuthSecret   string        `env:"RELAY_AUTH_SECRET"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// fileConfig is the optional config.yaml overlay. Only the outbound
// timeout is file-configurable.
type fileConfig struct {
	QuickBooks struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"quickbooks"`
}

// Load hydrates the environment (AWS Secrets Manager, then .env) and
// parses it into a Config. A config.yaml in the working directory may
// override the outbound timeout.
func Load() (Config, error) {
	if err := loadAWSSecretsIntoEnv(); err != nil {
		fmt.Printf("Warning: skipping AWS Secrets Manager load: %v\n", err)
	}
	loadDotEnv()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Environment != "sandbox" && cfg.Environment != "production" {
		return Config{}, fmt.Errorf("QB_ENVIRONMENT must be sandbox or production, got %q", cfg.Environment)
	}

	applyFileOverrides(&cfg, "config.yaml")
	return cfg, nil
}

func loadDotEnv() {
	envFile := os.Getenv("ENV_FILE_PATH")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		// Don't log if running in K8s/Docker where env is injected
		if os.Getenv("KUBERNETES_SERVICE_HOST") == "" {
			fmt.Printf("Note: .env file not found at %s. Using system environment variables.\n", envFile)
		}
	}
}

func applyFileOverrides(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		fmt.Printf("Warning: ignoring malformed %s: %v\n", path, err)
		return
	}
	if fc.QuickBooks.Timeout != "" {
		if d, err := time.ParseDuration(fc.QuickBooks.Timeout); err == nil {
			cfg.HTTPTimeout = d
		}
	}
}
