package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BatchSize    int    `envconfig:"BATCH_SIZE" default:"1000"`
	Workers      int    `envconfig:"WORKERS" default:"4"`
	CSVDelimiter string `envconfig:"CSV_DELIMITER" default:";"`

	QuotesFile string `envconfig:"QUOTES_FILE"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("erro ao carregar configuração: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE deve ser positivo: %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS deve ser positivo: %d", c.Workers)
	}
	if len([]rune(c.CSVDelimiter)) != 1 {
		return fmt.Errorf("CSV_DELIMITER deve ter um caractere: %q", c.CSVDelimiter)
	}
	return nil
}

// Delimiter retorna o separador do CSV como rune.
func (c *Config) Delimiter() rune {
	return []rune(c.CSVDelimiter)[0]
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}
