// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Config holds the server configuration.
type Config struct {
	// Mode is the operating mode: strict or dev.
	Mode string `toml:"mode"`

	// ListenAddr is the address the bridge listens on.
	// Example: "127.0.0.1:9300"
	ListenAddr string `toml:"listen_addr"`

	// Server holds server-level settings.
	Server ServerConfig `toml:"server"`

	// Storage configures where ingested files are written.
	Storage StorageConfig `toml:"storage"`

	// ContentIndex selects and configures the content index driver.
	ContentIndex ContentIndexConfig `toml:"content_index"`

	// DropFolder configures the watched drop folder share source.
	DropFolder DropFolderConfig `toml:"drop_folder"`

	// Bridge configures the hand-off bridge.
	Bridge BridgeConfig `toml:"bridge"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`

	// HTTP holds per-service HTTP configuration (Reva-style).
	HTTP HTTPConfig `toml:"http"`
}

// HTTPConfig holds per-service HTTP configuration.
// Services are configured under [http.services.<svcname>].
type HTTPConfig struct {
	// Services maps service names to their raw config maps.
	// Each service decodes its own config via cfg.Decode() with Setter interface.
	Services map[string]map[string]any `toml:"services"`
}

// ServerConfig holds server-level settings.
type ServerConfig struct {
	// BridgeToken, when set, is required on every endpoint except
	// /api/healthz. Empty disables the gate.
	BridgeToken string `toml:"bridge_token"`
}

// StorageConfig holds the private document root layout.
type StorageConfig struct {
	// PrivateRoot is the application's private document directory.
	PrivateRoot string `toml:"private_root"`

	// TransDir is the directory under PrivateRoot that receives ingested files.
	// Default: "trans"
	TransDir string `toml:"trans_dir"`

	// CopyBufferBytes is the copy buffer size. Default: 32768.
	CopyBufferBytes int `toml:"copy_buffer_bytes"`
}

// TransRoot returns <private_root>/<trans_dir>.
func (s StorageConfig) TransRoot() string {
	return filepath.Join(s.PrivateRoot, s.TransDir)
}

// ContentIndexConfig holds content index settings.
type ContentIndexConfig struct {
	// Driver is the index driver name: "sqlite" or "memory".
	// Default: sqlite in strict mode, memory in dev mode.
	Driver string `toml:"driver"`

	// DataDir is where persistent drivers keep their files.
	DataDir string `toml:"data_dir"`
}

// DropFolderConfig holds drop folder watcher settings.
type DropFolderConfig struct {
	// Enabled turns on the watcher. Default: false.
	Enabled bool `toml:"enabled"`

	// Path is the watched directory. Required when enabled.
	Path string `toml:"path"`

	// DebounceMS is how long a file must stay quiet before it is ingested.
	// Default: 500.
	DebounceMS int `toml:"debounce_ms"`
}

// BridgeConfig holds hand-off bridge settings.
type BridgeConfig struct {
	// PushBuffer is the number of undelivered pushed paths held per listener.
	// Default: 16.
	PushBuffer int `toml:"push_buffer"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info in strict mode, debug in dev mode.
	Level string `toml:"level"`
}

// BuildServiceConfig returns the raw service config map for a given service name.
// Returns nil if the service is not configured in [http.services.<name>].
func (c *Config) BuildServiceConfig(serviceName string) map[string]any {
	if c.HTTP.Services == nil {
		return nil
	}
	svcCfg, ok := c.HTTP.Services[serviceName]
	if !ok {
		return nil
	}
	// Return a copy to prevent mutation
	result := make(map[string]any)
	for k, v := range svcCfg {
		result[k] = v
	}
	return result
}

// Redacted returns a string representation of the config with secrets redacted.
func (c *Config) Redacted() string {
	token := `""`
	if c.Server.BridgeToken != "" {
		token = "[REDACTED]"
	}

	var sb strings.Builder
	sb.WriteString("Config{\n")
	sb.WriteString(fmt.Sprintf("  Mode: %q,\n", c.Mode))
	sb.WriteString(fmt.Sprintf("  ListenAddr: %q,\n", c.ListenAddr))
	sb.WriteString("  Server: {\n")
	sb.WriteString(fmt.Sprintf("    BridgeToken: %s,\n", token))
	sb.WriteString("  },\n")
	sb.WriteString("  Storage: {\n")
	sb.WriteString(fmt.Sprintf("    PrivateRoot: %q,\n", c.Storage.PrivateRoot))
	sb.WriteString(fmt.Sprintf("    TransDir: %q,\n", c.Storage.TransDir))
	sb.WriteString(fmt.Sprintf("    CopyBufferBytes: %d,\n", c.Storage.CopyBufferBytes))
	sb.WriteString("  },\n")
	sb.WriteString("  ContentIndex: {\n")
	sb.WriteString(fmt.Sprintf("    Driver: %q,\n", c.ContentIndex.Driver))
	sb.WriteString(fmt.Sprintf("    DataDir: %q,\n", c.ContentIndex.DataDir))
	sb.WriteString("  },\n")
	sb.WriteString("  DropFolder: {\n")
	sb.WriteString(fmt.Sprintf("    Enabled: %v,\n", c.DropFolder.Enabled))
	sb.WriteString(fmt.Sprintf("    Path: %q,\n", c.DropFolder.Path))
	sb.WriteString(fmt.Sprintf("    DebounceMS: %d,\n", c.DropFolder.DebounceMS))
	sb.WriteString("  },\n")
	sb.WriteString("  Bridge: {\n")
	sb.WriteString(fmt.Sprintf("    PushBuffer: %d,\n", c.Bridge.PushBuffer))
	sb.WriteString("  },\n")
	sb.WriteString("  Logging: {\n")
	sb.WriteString(fmt.Sprintf("    Level: %q,\n", c.Logging.Level))
	sb.WriteString("  },\n")
	sb.WriteString("  HTTP: {\n")
	sb.WriteString(fmt.Sprintf("    ServicesCount: %d,\n", len(c.HTTP.Services)))
	if len(c.HTTP.Services) > 0 {
		names := make([]string, 0, len(c.HTTP.Services))
		for name := range c.HTTP.Services {
			names = append(names, fmt.Sprintf("%q", name))
		}
		sort.Strings(names)
		sb.WriteString(fmt.Sprintf("    Services: [%s],\n", strings.Join(names, ", ")))
	}
	sb.WriteString("  },\n")
	sb.WriteString("}")
	return sb.String()
}
