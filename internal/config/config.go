// Package config loads process configuration from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"raffle/internal/logger"
)

type Log struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	File      string `env:"LOG_FILE"`
	ErrorFile string `env:"LOG_ERROR_FILE"`
	Console   bool   `env:"LOG_CONSOLE" envDefault:"true"`
}

func (l Log) Logger() logger.Configuration {
	return logger.Configuration{
		LogFile:   l.File,
		ErrorFile: l.ErrorFile,
		Level:     l.Level,
		Console:   l.Console,
	}
}

type Settlement struct {
	TonapiToken    string        `env:"TONAPI_TOKEN"`
	WalletMnemonic string        `env:"WALLET_MNEMONIC"`
	WalletVersion  string        `env:"WALLET_VERSION" envDefault:"V4R2"`
	RaffleWallet   string        `env:"RAFFLE_WALLET_ADDRESS"`
	PollInterval   time.Duration `env:"ORACLE_POLL_INTERVAL" envDefault:"10s"`
	ConfirmTimeout time.Duration `env:"SETTLEMENT_CONFIRM_TIMEOUT" envDefault:"60s"`
}

func (s Settlement) Validate() error {
	if s.WalletMnemonic == "" {
		return errors.New("WALLET_MNEMONIC is required")
	}
	if s.RaffleWallet == "" {
		return errors.New("RAFFLE_WALLET_ADDRESS is required")
	}
	if s.PollInterval <= 0 {
		return errors.New("ORACLE_POLL_INTERVAL must be positive")
	}
	return nil
}

type Config struct {
	Log          Log
	DatabasePath string `env:"DATABASE_PATH" envDefault:"persistent.db"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	Edition      string `env:"RAFFLE_EDITION" envDefault:"standard"`
	EditionsFile string `env:"EDITIONS_FILE"`
	Settlement   Settlement
}

// Load reads the .env files (all optional, earlier ones win) and then the
// environment. Variables already set in the environment take precedence.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
