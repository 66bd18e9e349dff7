package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the runtime sandbox configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Store     StoreConfig     `yaml:"store"`
	Process   ProcessConfig   `yaml:"process"`
	LLM       LLMConfig       `yaml:"llm"`
	Memory    MemoryConfig    `yaml:"memory"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WorkspaceConfig holds workspace sandbox configuration
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// StoreConfig holds durable store configuration
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ProcessConfig holds process runtime configuration
type ProcessConfig struct {
	// CommandTimeout bounds one-shot command execution. Commands that run
	// longer are killed and reported as failed.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// MaxOutputBytes caps captured stdout/stderr per stream.
	MaxOutputBytes int `yaml:"max_output_bytes"`
}

// LLMConfig holds LLM provider configurations
type LLMConfig struct {
	// RequestTimeout applies per provider attempt; on expiry the next
	// provider in the list is tried.
	RequestTimeout time.Duration       `yaml:"request_timeout"`
	Providers      []LLMProviderConfig `yaml:"providers"`
}

// LLMProviderConfig holds individual provider configuration.
// Providers are tried in list order; the first entry is the primary.
type LLMProviderConfig struct {
	Name      string `yaml:"name"`
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// MemoryConfig holds memory-context and extraction configuration
type MemoryConfig struct {
	RecentWindow        int           `yaml:"recent_window"`
	ImportanceThreshold int           `yaml:"importance_threshold"`
	ExtractionMinimum   int           `yaml:"extraction_minimum"`
	ExtractionTimeout   time.Duration `yaml:"extraction_timeout"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Resolve API keys from environment variables
	for i := range config.LLM.Providers {
		if config.LLM.Providers[i].APIKeyEnv != "" {
			config.LLM.Providers[i].APIKey = os.Getenv(config.LLM.Providers[i].APIKeyEnv)
		}
	}

	config.SetDefaults()

	return &config, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Workspace.Root == "" {
		c.Workspace.Root = "./workspaces"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./sandbox.db"
	}
	if c.Process.CommandTimeout == 0 {
		c.Process.CommandTimeout = 60 * time.Second
	}
	if c.Process.MaxOutputBytes == 0 {
		c.Process.MaxOutputBytes = 1 << 20 // 1 MB per stream
	}
	if c.LLM.RequestTimeout == 0 {
		c.LLM.RequestTimeout = 30 * time.Second
	}
	if c.Memory.RecentWindow == 0 {
		c.Memory.RecentWindow = 10
	}
	if c.Memory.ImportanceThreshold == 0 {
		c.Memory.ImportanceThreshold = 6
	}
	if c.Memory.ExtractionMinimum == 0 {
		c.Memory.ExtractionMinimum = 5
	}
	if c.Memory.ExtractionTimeout == 0 {
		c.Memory.ExtractionTimeout = 45 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// Provider completion timeouts below 15s routinely cut off real
	// completions; refuse rather than silently degrade.
	if c.LLM.RequestTimeout < 15*time.Second {
		return fmt.Errorf("llm request_timeout must be at least 15s, got %s", c.LLM.RequestTimeout)
	}
	for i, p := range c.LLM.Providers {
		if p.Name == "" {
			return fmt.Errorf("llm provider %d: name is required", i)
		}
	}
	return nil
}
