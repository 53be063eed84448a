package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"60s"`
	JoinCodeTTL     time.Duration `env:"JOIN_CODE_TTL" envDefault:"1h"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	SeedDemoData bool `env:"SEED_DEMO_DATA" envDefault:"false"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
