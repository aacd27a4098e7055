package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds configuration for the generation capability.
type Config struct {
	ToolName     string        // MCP tool name to call
	Model        string        // Model name passed through to the tool
	Temperature  float64       // Controls randomness (0.0-1.0)
	MaxTokens    int           // Maximum tokens to generate
	Timeout      time.Duration // Context timeout per call
	RetryCount   int           // Number of retries on transient failure
	RetryBackoff time.Duration // Base backoff between retries

	MaxContentSize    int  // Maximum combined prompt size in bytes
	RateLimitEnabled  bool // Enable per-key rate limiting
	RequestsPerMinute int  // Max requests per minute when limiting
}

// LoadConfig fills defaults and, for a nil config, environment
// overrides. Explicitly provided values always win over the
// environment.
func LoadConfig(config *Config) *Config {
	if config == nil {
		config = &Config{}
		if toolName := os.Getenv("FEDCHECK_TOOL_NAME"); toolName != "" {
			config.ToolName = toolName
		}
		if model := os.Getenv("FEDCHECK_MODEL"); model != "" {
			config.Model = model
		}
	}

	if config.ToolName == "" {
		config.ToolName = "fedcheck.llm.generate"
	}
	if config.Model == "" {
		config.Model = "default"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.MaxContentSize == 0 {
		config.MaxContentSize = 64 * 1024
	}
	if config.RateLimitEnabled && config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 60
	}
	return config
}

// ServerConfig holds configuration for connecting to the model server.
type ServerConfig struct {
	// Path to the stdio server executable
	Path string

	// Transport type; only "stdio" is supported
	Transport string

	// Additional "key=value" options passed to the server process
	Options []string
}

// GetServerConfig resolves the model server location. An explicit path
// takes precedence; otherwise the FEDCHECK_MODEL_SERVER environment
// variable is consulted.
func GetServerConfig(serverPath string) (*ServerConfig, error) {
	if serverPath == "" {
		serverPath = os.Getenv("FEDCHECK_MODEL_SERVER")
	}
	if serverPath == "" {
		return nil, fmt.Errorf("no model server configured; set FEDCHECK_MODEL_SERVER or pass a server path")
	}
	if strings.HasPrefix(serverPath, "http://") || strings.HasPrefix(serverPath, "https://") {
		return nil, fmt.Errorf("http transport is not supported; provide a stdio server path")
	}
	return &ServerConfig{
		Path:      serverPath,
		Transport: "stdio",
	}, nil
}
