// Package config loads moodlog settings from defaults, a .env file, an
// optional YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every moodlog setting
type Config struct {
	DBPath     string           `yaml:"db_path"`
	Addr       string           `yaml:"addr"`
	MaxConns   int              `yaml:"max_conns"`
	Verbose    bool             `yaml:"verbose"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Classifier ClassifierConfig `yaml:"classifier"`
}

// AssistantConfig configures the Gemini assistant
type AssistantConfig struct {
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	MaxTurns int    `yaml:"max_turns"`
}

// ClassifierConfig configures the Anthropic emotion classifier
type ClassifierConfig struct {
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// Dir returns ~/.moodlog
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".moodlog")
}

// DefaultPath is where Load looks when no path is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		DBPath:   filepath.Join(Dir(), "moods.db"),
		Addr:     ":8080",
		MaxConns: 64,
		Assistant: AssistantConfig{
			Model:    "gemini-2.0-flash",
			MaxTurns: 5,
		},
	}
}

// Load builds a Config. A missing .env or YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv("MOODLOG_DB", c.DBPath)
	c.Addr = getEnv("MOODLOG_ADDR", c.Addr)
	if v, err := strconv.ParseBool(os.Getenv("MOODLOG_VERBOSE")); err == nil {
		c.Verbose = v
	}
	c.Assistant.APIKey = getEnv("GOOGLE_API_KEY", c.Assistant.APIKey)
	c.Assistant.APIKey = getEnv("GEMINI_API_KEY", c.Assistant.APIKey)
	c.Classifier.APIKey = getEnv("ANTHROPIC_API_KEY", c.Classifier.APIKey)
}

// Validate rejects settings the rest of the program cannot run with
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("max_conns must be positive, got %d", c.MaxConns)
	}
	if c.Assistant.MaxTurns < 1 {
		return fmt.Errorf("assistant.max_turns must be positive, got %d", c.Assistant.MaxTurns)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
