package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string            `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL    string            `env:"DATABASE_URL,required"`
	JWTSecret      string            `env:"JWT_SECRET,required"`
	JWTTTLHours    int               `env:"JWT_TTL_HOURS" envDefault:"24"`
	BootstrapUsers map[string]string `env:"BOOTSTRAP_USERS" envKeyValSeparator:":"`

	LoginMaxAttempts   int `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindowMinutes int `env:"LOGIN_WINDOW_MINUTES" envDefault:"10"`

	MaxImageBytes int64 `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Check Payment Logger"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	NotifyEmail  string `env:"NOTIFY_EMAIL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTTTLHours <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if c.LoginMaxAttempts <= 0 || c.LoginWindowMinutes <= 0 {
		return errors.New("LOGIN_MAX_ATTEMPTS and LOGIN_WINDOW_MINUTES must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("MAX_IMAGE_BYTES must be positive")
	}
	for name, pass := range c.BootstrapUsers {
		if strings.TrimSpace(name) == "" || pass == "" {
			return errors.New("BOOTSTRAP_USERS entries must be name:password")
		}
	}
	return nil
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}
