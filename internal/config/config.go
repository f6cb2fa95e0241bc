package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for jsonpeel
type Config struct {
	MaxDepth   int          `yaml:"max_depth"`
	ProbeLimit int          `yaml:"probe_limit"`
	Repair     bool         `yaml:"repair"`
	Output     OutputConfig `yaml:"output"`
}

// OutputConfig controls how normalized documents are rendered
type OutputConfig struct {
	Compact bool   `yaml:"compact"`
	Indent  string `yaml:"indent"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MaxDepth:   25,
		ProbeLimit: 20,
		Repair:     false,
		Output: OutputConfig{
			Compact: false,
			Indent:  "  ",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults so absent keys keep their default values
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonpeel.yml", ".jsonpeel.yaml", "jsonpeel.yml", "jsonpeel.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate rejects limits that would disable the termination bounds
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.ProbeLimit < 1 {
		return fmt.Errorf("probe_limit must be at least 1, got %d", c.ProbeLimit)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the config. A .env file in the
// working directory is loaded first if present; real environment variables
// win over .env entries (godotenv does not overwrite existing vars).
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v := os.Getenv("JSONPEEL_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JSONPEEL_MAX_DEPTH %q: %w", v, err)
		}
		c.MaxDepth = n
	}
	if v := os.Getenv("JSONPEEL_PROBE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JSONPEEL_PROBE_LIMIT %q: %w", v, err)
		}
		c.ProbeLimit = n
	}
	if v := os.Getenv("JSONPEEL_REPAIR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid JSONPEEL_REPAIR %q: %w", v, err)
		}
		c.Repair = b
	}

	return c.Validate()
}

// LoadWithEnv resolves the effective config: file (explicit path, or the
// nearest discovered one), then environment overrides. An empty configPath
// with no discoverable file just yields defaults plus env.
func LoadWithEnv(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg := NewConfig()
	if configPath != "" {
		fileCfg, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
