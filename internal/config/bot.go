package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type BotConfig struct {
	WSURL     string        `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	ServerURL string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	APIToken  string        `env:"API_TOKEN,required,notEmpty"`
	GameID    string        `env:"GAME_ID,required,notEmpty"`
	RollDelay time.Duration `env:"ROLL_DELAY" envDefault:"750ms"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
