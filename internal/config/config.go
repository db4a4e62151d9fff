package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/fuzzbridge/echidna-mcp/pkg/utils"
)

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(path string, logger *logrus.Logger) (*AppConfig, error) {
	// Start with default configuration
	config := DefaultConfig()

	// Check if the config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warnf("Configuration file %s not found, using defaults", path)
		// Still apply environment overrides even with defaults
		applyEnvironmentOverrides(config)
		return config, nil
	}

	// Read the configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration
	configString := utils.ExpandEnvVars(string(data))

	// Parse YAML
	if err := yaml.Unmarshal([]byte(configString), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	applyEnvironmentOverrides(config)

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(config *AppConfig, path string) error {
	// Create the directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateConfig checks if the configuration is valid
func validateConfig(config *AppConfig) error {
	if config.Server.Name == "" {
		return fmt.Errorf("server name cannot be empty")
	}

	if config.Server.Transport != "stdio" && config.Server.Transport != "sse" {
		return fmt.Errorf("server transport must be 'stdio' or 'sse', got '%s'", config.Server.Transport)
	}

	if config.Server.Transport == "sse" && config.Server.SSEPort <= 0 {
		return fmt.Errorf("sse_port must be a positive value when transport is 'sse'")
	}

	if config.Echidna.Binary == "" {
		return fmt.Errorf("echidna binary cannot be empty")
	}

	if config.Echidna.TimeoutSec <= 0 {
		return fmt.Errorf("echidna timeout_sec must be positive, got %d", config.Echidna.TimeoutSec)
	}

	if config.HTTP.Enabled && config.HTTP.Port <= 0 {
		return fmt.Errorf("http port must be a positive value when the status API is enabled")
	}

	if config.WebSocket.Enabled && !config.HTTP.Enabled {
		return fmt.Errorf("websocket gateway requires the HTTP server to be enabled")
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the configuration
func applyEnvironmentOverrides(config *AppConfig) {
	// Server overrides
	if name := os.Getenv("MCP_SERVER_NAME"); name != "" {
		config.Server.Name = name
	}
	if transport := os.Getenv("MCP_TRANSPORT"); transport != "" {
		config.Server.Transport = transport
	}
	config.Server.SSEPort = utils.IntFromEnv("SSE_PORT", config.Server.SSEPort)

	// External executable overrides
	if bin := os.Getenv("ECHIDNA_BIN"); bin != "" {
		config.Echidna.Binary = bin
	}
	if bin := os.Getenv("ETHENO_BIN"); bin != "" {
		config.Echidna.EthenoBinary = bin
	}
	if bin := os.Getenv("TRUFFLE_BIN"); bin != "" {
		config.Echidna.TruffleBinary = bin
	}
	if dir := os.Getenv("WORKSPACE_DIR"); dir != "" {
		config.Echidna.Workspace = dir
	}
	config.Echidna.TimeoutSec = utils.IntFromEnv("RUN_TIMEOUT_SEC", config.Echidna.TimeoutSec)

	// HTTP overrides
	config.HTTP.Enabled = utils.BoolFromEnv("HTTP_ENABLED", config.HTTP.Enabled)
	config.HTTP.Port = utils.IntFromEnv("HTTP_PORT", config.HTTP.Port)
	config.WebSocket.Enabled = utils.BoolFromEnv("WS_ENABLED", config.WebSocket.Enabled)

	// Logging overrides
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
