// Package config loads and validates application configuration from
// defaults, an optional config.yaml, and DM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps all configuration loading and validation
// failures. These are fatal at startup.
var ErrConfiguration = errors.New("configuration error")

// Config is the validated application configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Log    LogConfig    `mapstructure:"log"`
}

// APIConfig holds the X API credentials and transport settings. All
// four credentials are required; nothing downstream can proceed
// without them.
type APIConfig struct {
	Key               string        `mapstructure:"key" validate:"required"`
	Secret            string        `mapstructure:"secret" validate:"required"`
	AccessToken       string        `mapstructure:"access_token" validate:"required"`
	AccessTokenSecret string        `mapstructure:"access_token_secret" validate:"required"`
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// FetchConfig holds the conversation fetch tuning knobs.
type FetchConfig struct {
	MaxMessages int           `mapstructure:"max_messages" validate:"gt=0,lte=1000"`
	MaxWorkers  int           `mapstructure:"max_workers" validate:"gt=0,lte=10"`
	PageDelay   time.Duration `mapstructure:"page_delay" validate:"gte=0"`
	PacingDelay time.Duration `mapstructure:"pacing_delay" validate:"gte=0"`
}

// GeminiConfig holds the optional summarization backend settings. An
// empty APIKey selects the deterministic fallback summarizer.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `mapstructure:"pretty"`
}

// Defaults for optional settings.
const (
	defaultBaseURL     = "https://api.twitter.com"
	defaultTimeout     = 10 * time.Second
	defaultMaxMessages = 100
	defaultMaxWorkers  = 5
	defaultPageDelay   = 100 * time.Millisecond
	defaultPacing      = 200 * time.Millisecond
	defaultGeminiModel = "gemini-2.0-flash"
	defaultLogLevel    = "info"
)

// Load reads configuration from defaults, an optional config.yaml in
// the working directory, and DM_* environment variables, then
// validates the result.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("DM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env and defaults may be enough.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config file: %v", ErrConfiguration, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Empty defaults register the credential keys so AutomaticEnv can
	// populate them; validation rejects the empty values.
	viper.SetDefault("api.key", "")
	viper.SetDefault("api.secret", "")
	viper.SetDefault("api.access_token", "")
	viper.SetDefault("api.access_token_secret", "")
	viper.SetDefault("api.base_url", defaultBaseURL)
	viper.SetDefault("api.timeout", defaultTimeout)

	viper.SetDefault("fetch.max_messages", defaultMaxMessages)
	viper.SetDefault("fetch.max_workers", defaultMaxWorkers)
	viper.SetDefault("fetch.page_delay", defaultPageDelay)
	viper.SetDefault("fetch.pacing_delay", defaultPacing)

	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.model", defaultGeminiModel)

	viper.SetDefault("log.level", defaultLogLevel)
	viper.SetDefault("log.pretty", false)
}
