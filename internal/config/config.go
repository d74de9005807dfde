package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Gate       GateConfig       `mapstructure:"gate"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type BotConfig struct {
	Token           string  `mapstructure:"token"`
	OwnerID         string  `mapstructure:"owner_id"`
	UpdateTimeout   int     `mapstructure:"update_timeout"`
	MaxMessageChars int     `mapstructure:"max_message_chars"`
	SendsPerSecond  float64 `mapstructure:"sends_per_second"`
}

type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	StandardModel   string        `mapstructure:"standard_model"`
	PrivilegedModel string        `mapstructure:"privileged_model"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ChatWindow    time.Duration `mapstructure:"chat_window"`
	CommandWindow time.Duration `mapstructure:"command_window"`
}

type GateConfig struct {
	MaxConcurrent int64 `mapstructure:"max_concurrent"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
}

// LoadConfig loads configuration from file and environment variables.
// Missing required values are a startup error, not a runtime one.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("bot.token", "TELEGRAM_TOKEN")
	viper.BindEnv("bot.owner_id", "OWNER_ID")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("monitoring.metrics.port", "PORT")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("bot.update_timeout", 30)
	// Buffer under Telegram's 4096-character limit.
	viper.SetDefault("bot.max_message_chars", 3900)
	viper.SetDefault("bot.sends_per_second", 20.0)
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.standard_model", "gemini-3-flash-preview")
	viper.SetDefault("gemini.privileged_model", "gemini-3-pro-preview")
	viper.SetDefault("gemini.request_timeout", 30*time.Second)
	viper.SetDefault("gemini.max_attempts", 3)
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.chat_window", 2*time.Second)
	viper.SetDefault("rate_limit.command_window", 5*time.Second)
	viper.SetDefault("gate.max_concurrent", 4)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", 10*time.Minute)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("monitoring.metrics.enabled", true)
	viper.SetDefault("monitoring.metrics.port", 8080)
	viper.SetDefault("monitoring.metrics.path", "/metrics")
	viper.SetDefault("i18n.default_language", "es")
	viper.SetDefault("i18n.languages", []string{"es"})
}

func validateConfig(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token is required (TELEGRAM_TOKEN)")
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key is required (GEMINI_API_KEY)")
	}
	if cfg.Bot.OwnerID == "" {
		return fmt.Errorf("owner id is required (OWNER_ID)")
	}
	if cfg.Bot.MaxMessageChars <= 0 {
		return fmt.Errorf("bot.max_message_chars must be positive")
	}
	if cfg.Gate.MaxConcurrent < 1 {
		return fmt.Errorf("gate.max_concurrent must be at least 1")
	}
	if cfg.Gemini.StandardModel == "" || cfg.Gemini.PrivilegedModel == "" {
		return fmt.Errorf("both gemini models must be configured")
	}
	return nil
}
