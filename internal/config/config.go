package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	AuthPath string `env:"AUTH_PATH" envDefault:"/auth"`

	SessionStore     string `env:"SESSION_STORE" envDefault:"file"`
	SessionFile      string `env:"SESSION_FILE" envDefault:".ai-spm/session.json"`
	SessionKeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"aispm:"`
	DatabaseURL      string `env:"DATABASE_URL"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:".ai-spm/session.db"`
	RedisAddr        string `env:"REDIS_ADDR"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`

	AuthBackend     string `env:"AUTH_BACKEND" envDefault:"mock"`
	AuthBaseURL     string `env:"AUTH_BASE_URL"`
	LoginDelayMS    int    `env:"LOGIN_DELAY_MS" envDefault:"1000"`
	LogoutDelayMS   int    `env:"LOGOUT_DELAY_MS" envDefault:"500"`
	RegisterDelayMS int    `env:"REGISTER_DELAY_MS" envDefault:"1500"`

	ViewPolicyFile string `env:"VIEW_POLICY_FILE"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoginDelay devuelve la latencia simulada del login.
func (c *Config) LoginDelay() time.Duration {
	return time.Duration(c.LoginDelayMS) * time.Millisecond
}

func (c *Config) LogoutDelay() time.Duration {
	return time.Duration(c.LogoutDelayMS) * time.Millisecond
}

func (c *Config) RegisterDelay() time.Duration {
	return time.Duration(c.RegisterDelayMS) * time.Millisecond
}
