package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines client configuration.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CredentialsConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL: "https://onlinestudysprintwebservice1.onrender.com",
			Timeout: 30 * time.Second,
		},
		Credentials: CredentialsConfig{
			Path: "studysprint.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("STUDYSPRINT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if baseURL := os.Getenv("STUDYSPRINT_API_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if timeoutStr := os.Getenv("STUDYSPRINT_API_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STUDYSPRINT_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = timeout
	}
	if credsPath := os.Getenv("STUDYSPRINT_CREDENTIALS_PATH"); credsPath != "" {
		cfg.Credentials.Path = credsPath
	}
	if level := os.Getenv("STUDYSPRINT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
