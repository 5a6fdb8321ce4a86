package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	EventsDriverLog   = "log"
	EventsDriverRedis = "redis"
	EventsDriverAMQP  = "amqp"
	EventsDriverNone  = "none"
)

// Config centraliza la configuración del servicio.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret      string        `env:"JWT_SECRET"`
	JWTExpiresIn   time.Duration `env:"JWT_EXPIRES_IN" envDefault:"1h"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"papaya-users"`
	AuthCookieName string        `env:"AUTH_COOKIE_NAME" envDefault:"Authentication"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	EventsDriver string `env:"EVENTS_DRIVER" envDefault:"log"`
	EventsStream string `env:"EVENTS_STREAM" envDefault:"user.events"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"user.events"`

	// 0 desactiva el limite de intentos de login
	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES" envDefault:"10"`
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW" envDefault:"15m"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.EventsDriver = strings.ToLower(strings.TrimSpace(cfg.EventsDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
// JWT_SECRET se valida al construir el TokenIssuer.
func (c *Config) Validate() error {
	switch c.EventsDriver {
	case EventsDriverLog, EventsDriverNone:
	case EventsDriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("EVENTS_DRIVER=redis requires REDIS_ADDR")
		}
	case EventsDriverAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("EVENTS_DRIVER=amqp requires AMQP_URL")
		}
	default:
		return fmt.Errorf("unknown EVENTS_DRIVER %q", c.EventsDriver)
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}
