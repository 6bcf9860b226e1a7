package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings read from NBODYX_* variables.
type Env struct {
	DataDir   string `env:"NBODYX_DATA_DIR" envDefault:"data"`
	LogLevel  string `env:"NBODYX_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"NBODYX_LOG_FORMAT" envDefault:"console"`
	Workers   int    `env:"NBODYX_WORKERS" envDefault:"0"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if e.Workers < 0 {
		return Env{}, fmt.Errorf("parse env: NBODYX_WORKERS must not be negative, got %d", e.Workers)
	}
	return e, nil
}
