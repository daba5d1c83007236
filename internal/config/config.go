package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config aggregates every setting of the service.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Server   ServerConfig
	Chat     ChatConfig
	Telegram TelegramConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	Addr           string   `validate:"required"`
}

// ChatConfig tunes the interaction loop and session lifecycle.
type ChatConfig struct {
	ReplyDelay       time.Duration `env:"REPLY_DELAY" envDefault:"1s" validate:"gte=0"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"2000" validate:"gt=0"`
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m" validate:"gt=0"`
	SweepSchedule    string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 5m" validate:"required"`
}

// TelegramConfig enables the optional Telegram transport.
type TelegramConfig struct {
	Token string `env:"TELEGRAM_BOT_TOKEN"`
	Debug bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`
}

// Enabled reports whether a bot token was supplied.
func (c TelegramConfig) Enabled() bool {
	return strings.TrimSpace(c.Token) != ""
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := listenAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// listenAddr turns PORT into a listen address.
func listenAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// accept ":8080" or "127.0.0.1:8080" as given
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}
