package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Enabled     bool   `envconfig:"HTTP_ENABLED" default:"true"`
	Host        string `envconfig:"HTTP_HOST" default:""`
	Port        string `envconfig:"HTTP_PORT" default:"8082"`
	ReadTimeout int    `envconfig:"HTTP_READ_TIMEOUT" default:"10"`
}

type Bot struct {
	Token       string `envconfig:"BOT_TOKEN" required:"true"`
	Workers     int    `envconfig:"BOT_WORKERS" default:"4"`
	PollTimeout int    `envconfig:"BOT_POLL_TIMEOUT" default:"30"`
	DropPending bool   `envconfig:"BOT_DROP_PENDING" default:"true"`
	Debug       bool   `envconfig:"BOT_DEBUG" default:"false"`
}

type Weather struct {
	APIKey string        `envconfig:"WEATHER_API_KEY" required:"true"`
	URL    string        `envconfig:"OPEN_WEATHER_MAP_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
	Lang   string        `envconfig:"WEATHER_LANG" default:"ru"`
	// Timeout bounds a single lookup, connection and read phases included.
	Timeout time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
}

type Breaker struct {
	Enabled      bool   `envconfig:"BREAKER_ENABLED" default:"true"`
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Log struct {
	Level        string `envconfig:"LOG_LEVEL" default:"info"`
	Path         string `envconfig:"LOGS_PATH" default:"./log/weather-bot.log"`
	HTTPLogsPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/weather-bot-http.log"`
}

type Config struct {
	Bot     Bot
	Weather Weather
	Server  Server
	Breaker Breaker
	Log     Log
}

// ConfigurationError reports settings the bot cannot start without.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Reason)
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigurationError{Key: "environment", Reason: err.Error()}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return &ConfigurationError{Key: "BOT_TOKEN", Reason: "is empty"}
	}
	if strings.TrimSpace(c.Weather.APIKey) == "" {
		return &ConfigurationError{Key: "WEATHER_API_KEY", Reason: "is empty"}
	}
	if c.Weather.Timeout <= 0 {
		return &ConfigurationError{Key: "WEATHER_TIMEOUT", Reason: "must be positive"}
	}
	if c.Bot.Workers <= 0 {
		return &ConfigurationError{Key: "BOT_WORKERS", Reason: "must be positive"}
	}
	return nil
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Redact keeps the first characters of a secret for startup logs.
func Redact(secret string) string {
	const visible = 10
	if len(secret) <= visible {
		return "***"
	}
	return secret[:visible] + "..."
}
