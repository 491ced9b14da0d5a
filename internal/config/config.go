package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	GenAI     GenAIConfig
	Session   SessionConfig
	SMTP      SMTPConfig
	Static    StaticConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port" validate:"gt=0,lte=65535"`
	MetricsPort    int `mapstructure:"metrics_port" validate:"gt=0,lte=65535"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds" validate:"gte=0"`
}

// StoreConfig selects the data store gateway backend. The memory
// backend simulates a latent remote store; postgres is the durable one.
type StoreConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=memory postgres"`
	LatencyMS int    `mapstructure:"latency_ms" validate:"gte=0"`
	Seed      bool   `mapstructure:"seed"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

// GenAIConfig points at the generative model endpoint used by both the
// extraction and risk clients. The API key arrives via environment only.
type GenAIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	APIKey         string `mapstructure:"-"`
}

type SessionConfig struct {
	TTLHours int    `mapstructure:"ttl_hours"`
	Secret   string `mapstructure:"-"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"-"`
}

type StaticConfig struct {
	Dir string `mapstructure:"dir"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// secrets are never read from the config file.
type secrets struct {
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	SessionSecret string `envconfig:"SESSION_SECRET"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var sec secrets
	if err := envconfig.Process("", &sec); err != nil {
		return nil, fmt.Errorf("failed to read environment secrets: %w", err)
	}
	config.GenAI.APIKey = sec.GeminiAPIKey
	config.Session.Secret = sec.SessionSecret
	config.SMTP.Password = sec.SMTPPassword

	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.MetricsPort == 0 {
		config.Server.MetricsPort = 8081
	}
	if config.Store.Backend == "" {
		config.Store.Backend = "memory"
	}
	if config.GenAI.Model == "" {
		config.GenAI.Model = "gemini-2.5-flash"
	}
	if config.GenAI.BaseURL == "" {
		config.GenAI.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.Session.TTLHours == 0 {
		config.Session.TTLHours = 24
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
