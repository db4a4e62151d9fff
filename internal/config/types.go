package config

import "github.com/fuzzbridge/echidna-mcp/pkg/utils"

// AppConfig is the top-level application configuration
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Echidna   EchidnaConfig   `yaml:"echidna"`
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   utils.LogConfig `yaml:"logging"`
}

// ServerConfig describes the MCP server identity and transport
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio" or "sse"
	SSEPort   int    `yaml:"sse_port"`
}

// EchidnaConfig describes the external executables and run defaults
type EchidnaConfig struct {
	Binary        string `yaml:"binary"`
	EthenoBinary  string `yaml:"etheno_binary"`
	TruffleBinary string `yaml:"truffle_binary"`
	Workspace     string `yaml:"workspace"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// HTTPConfig describes the status API server
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// WebSocketConfig describes the live event gateway
type WebSocketConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Name:      "echidna-mcp",
			Version:   "1.0.0",
			Transport: "stdio",
			SSEPort:   8090,
		},
		Echidna: EchidnaConfig{
			Binary:        "echidna",
			EthenoBinary:  "etheno",
			TruffleBinary: "truffle",
			Workspace:     "",
			TimeoutSec:    300,
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Host:    "",
			Port:    8080,
		},
		WebSocket: WebSocketConfig{
			Enabled: false,
		},
		Logging: utils.DefaultLogConfig(),
	}
}
