package mcpserver

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for every variable the MCP server reads.
const EnvPrefix = "AGENT_MCP"

type config struct {
	ServiceURL    string `envconfig:"SERVICE_URL" default:"http://localhost:8080"`
	ServerName    string `envconfig:"SERVER_NAME" default:"wellness-agent-mcp"`
	ServerVersion string `envconfig:"SERVER_VERSION" default:"0.1.0"`

	// Transport is stdio, http, or auto (stdio when stdin is not a terminal).
	Transport string `envconfig:"TRANSPORT" default:"auto"`
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8090"`

	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	HTTPReadTimeout time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPIdleTimeout time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
}

func loadConfig() (*config, error) {
	var cfg config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	switch cfg.Transport {
	case "auto", "stdio", "http":
	default:
		return nil, fmt.Errorf("unsupported TRANSPORT: %s", cfg.Transport)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return &cfg, nil
}

// useStdio resolves the auto transport from stdin.
func (c *config) useStdio(stdin *os.File) bool {
	switch c.Transport {
	case "stdio":
		return true
	case "http":
		return false
	}
	if fi, err := stdin.Stat(); err == nil {
		return fi.Mode()&os.ModeCharDevice == 0
	}
	return false
}
