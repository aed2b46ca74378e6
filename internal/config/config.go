package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration loaded from config.yaml.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Auth struct {
		SecretKey Secret `yaml:"secret_key"`
	} `yaml:"auth"`
	Exchange struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"exchange"`
	AWS struct {
		Region string `yaml:"region"`
	} `yaml:"aws"`
	Alerts struct {
		LineBotToken Secret   `yaml:"line_bot_token"`
		Recipients   []string `yaml:"recipients"`
	} `yaml:"alerts"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads and decodes the YAML config at path, applying defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return &cfg, nil
}
