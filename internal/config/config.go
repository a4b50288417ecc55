package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Reminder ReminderConfig `yaml:"reminder"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	// задачи какого владельца обслуживает этот процесс
	OwnerID string `yaml:"owner_id"`
}

type StoreConfig struct {
	Type string `yaml:"type"` // "inmemory", "bunt" или "postgres"
	Path string `yaml:"path"` // файл buntdb
	URL  string `yaml:"url"`  // строка подключения postgres
}

type ReminderConfig struct {
	Lead          time.Duration `yaml:"lead"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepBatch    int           `yaml:"sweep_batch"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

const defaultPath = "config.yml"

func Load() (*Config, error) {
	return LoadFrom(defaultPath)
}

func LoadFrom(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	// переменные окружения (и .env) перекрывают yaml
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Store.URL = url
	}
	if owner := os.Getenv("OWNER_ID"); owner != "" {
		cfg.Server.OwnerID = owner
	}

	return &cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
