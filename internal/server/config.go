package server

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/bridgetable/internal/protocol"
)

// DefaultPort is the TCP port the table listens on.
const DefaultPort = 2410

const defaultShutdownGraceMS = 500

// ServerConfig is the contents of table.hcl
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address         string `hcl:"address,optional"`
	WSAddress       string `hcl:"ws_address,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	MaxFrameBytes   int    `hcl:"max_frame_bytes,optional"`
	ShutdownGraceMS *int   `hcl:"shutdown_grace_ms,optional"`
	Seed            *int64 `hcl:"seed,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	grace := defaultShutdownGraceMS
	return &ServerConfig{
		Server: ServerSettings{
			Address:         fmt.Sprintf("localhost:%d", DefaultPort),
			LogLevel:        "info",
			MaxFrameBytes:   protocol.DefaultMaxFrameSize,
			ShutdownGraceMS: &grace,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	def := DefaultServerConfig().Server
	if c.Server.Address == "" {
		c.Server.Address = def.Address
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.LogLevel
	}
	if c.Server.MaxFrameBytes == 0 {
		c.Server.MaxFrameBytes = def.MaxFrameBytes
	}
	if c.Server.ShutdownGraceMS == nil {
		c.Server.ShutdownGraceMS = def.ShutdownGraceMS
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Server.Address, err)
	}
	if c.Server.WSAddress != "" {
		if _, _, err := net.SplitHostPort(c.Server.WSAddress); err != nil {
			return fmt.Errorf("invalid ws_address %q: %w", c.Server.WSAddress, err)
		}
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.Server.LogLevel, err)
	}
	if c.Server.MaxFrameBytes < 64 {
		return fmt.Errorf("max_frame_bytes must be at least 64, got %d", c.Server.MaxFrameBytes)
	}
	if c.Server.ShutdownGraceMS != nil && *c.Server.ShutdownGraceMS < 0 {
		return fmt.Errorf("shutdown_grace_ms must not be negative, got %d", *c.Server.ShutdownGraceMS)
	}
	return nil
}

// ShutdownGrace returns the delay between the shutdown notice and closing
// connections.
func (c *ServerConfig) ShutdownGrace() time.Duration {
	ms := defaultShutdownGraceMS
	if c.Server.ShutdownGraceMS != nil {
		ms = *c.Server.ShutdownGraceMS
	}
	return time.Duration(ms) * time.Millisecond
}
