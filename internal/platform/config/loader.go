// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Mode represents the server operating mode.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeDev    Mode = "dev"
)

const (
	defaultListenAddr      = "127.0.0.1:9300"
	defaultTransDir        = "trans"
	defaultCopyBufferBytes = 32 * 1024
	defaultDebounceMS      = 500
	defaultPushBuffer      = 16
)

// ParseMode parses a mode string, returning an error for invalid values.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return ModeStrict, nil
	case "dev":
		return ModeDev, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be one of strict, dev", s)
	}
}

// LoaderOptions controls how configuration is loaded.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML config file (optional).
	// If provided but file is missing or invalid, loading fails.
	ConfigPath string

	// ModeFlag is the --mode flag value (overrides config file mode).
	ModeFlag string

	// FlagOverrides are CLI flag values that override config file values.
	FlagOverrides FlagOverrides

	// Logger is used for warning messages (e.g., undecoded keys).
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// FlagOverrides holds CLI flag values that override config file values.
type FlagOverrides struct {
	ListenAddr         *string
	BridgeToken        *string
	PrivateRoot        *string
	ContentIndexDriver *string
	ContentIndexDir    *string
	DropFolderPath     *string // a non-empty path also enables the drop folder
	LoggingLevel       *string
}

// fileConfig mirrors Config but with pointer fields to detect presence.
type fileConfig struct {
	Mode       string        `toml:"mode"`
	ListenAddr string        `toml:"listen_addr"`
	Server     *serverConfig `toml:"server"`

	Storage      *storageConfig      `toml:"storage"`
	ContentIndex *contentIndexConfig `toml:"content_index"`
	DropFolder   *dropFolderConfig   `toml:"drop_folder"`
	Bridge       *bridgeConfig       `toml:"bridge"`
	Logging      *loggingConfig      `toml:"logging"`
	HTTP         *httpFileConfig     `toml:"http"`
}

// httpFileConfig holds per-service HTTP configuration from TOML.
type httpFileConfig struct {
	Services map[string]map[string]any `toml:"services"`
}

type serverConfig struct {
	BridgeToken string `toml:"bridge_token"`
}

type storageConfig struct {
	PrivateRoot     string `toml:"private_root"`
	TransDir        string `toml:"trans_dir"`
	CopyBufferBytes int    `toml:"copy_buffer_bytes"`
}

type contentIndexConfig struct {
	Driver  string `toml:"driver"`
	DataDir string `toml:"data_dir"`
}

// dropFolderConfig uses a pointer for Enabled so an explicit false is kept.
type dropFolderConfig struct {
	Enabled    *bool  `toml:"enabled"`
	Path       string `toml:"path"`
	DebounceMS int    `toml:"debounce_ms"`
}

type bridgeConfig struct {
	PushBuffer int `toml:"push_buffer"`
}

type loggingConfig struct {
	Level string `toml:"level"`
}

// Load loads configuration with the following precedence:
//  1. Determine effective mode: --mode flag > mode in config file > default (strict)
//  2. Start from mode preset defaults
//  3. Overlay TOML config file values
//  4. Overlay CLI flags
//  5. Validate enum fields
//  6. Make storage.private_root absolute
//
// If ConfigPath is provided but the file is missing, unreadable, or invalid TOML,
// Load returns an error (fail fast). Unknown/undecoded TOML keys produce a warning
// but do not fail the load.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var fc fileConfig

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigPath, err)
		}
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			logger.Warn("config file contains undecoded keys", "path", opts.ConfigPath, "keys", keys)
		}
	}

	modeStr := "strict"
	if fc.Mode != "" {
		modeStr = fc.Mode
	}
	if opts.ModeFlag != "" {
		modeStr = opts.ModeFlag
	}

	mode, err := ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	cfg := presetForMode(mode)

	if opts.ConfigPath != "" {
		overlayFileConfig(cfg, &fc)
	}

	overlayFlags(cfg, opts.FlagOverrides)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	// Ingest results must be absolute paths.
	root, err := filepath.Abs(cfg.Storage.PrivateRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage.private_root %q: %w", cfg.Storage.PrivateRoot, err)
	}
	cfg.Storage.PrivateRoot = root

	return cfg, nil
}

// presetForMode returns the base config for a given mode.
func presetForMode(mode Mode) *Config {
	switch mode {
	case ModeDev:
		return DevConfig()
	default:
		return StrictConfig()
	}
}

// StrictConfig returns production defaults: persistent index, info logs.
func StrictConfig() *Config {
	return &Config{
		Mode:       string(ModeStrict),
		ListenAddr: defaultListenAddr,
		Storage: StorageConfig{
			PrivateRoot:     ".shareintake/documents",
			TransDir:        defaultTransDir,
			CopyBufferBytes: defaultCopyBufferBytes,
		},
		ContentIndex: ContentIndexConfig{
			Driver:  "sqlite",
			DataDir: ".shareintake/index",
		},
		DropFolder: DropFolderConfig{
			DebounceMS: defaultDebounceMS,
		},
		Bridge: BridgeConfig{
			PushBuffer: defaultPushBuffer,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DevConfig returns development defaults: in-memory index, debug logs.
func DevConfig() *Config {
	cfg := StrictConfig()
	cfg.Mode = string(ModeDev)
	cfg.ContentIndex.Driver = "memory"
	cfg.Logging.Level = "debug"
	return cfg
}

// overlayFileConfig applies TOML file values onto cfg.
func overlayFileConfig(cfg *Config, fc *fileConfig) {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}

	if fc.Server != nil && fc.Server.BridgeToken != "" {
		cfg.Server.BridgeToken = fc.Server.BridgeToken
	}

	if fc.Storage != nil {
		if fc.Storage.PrivateRoot != "" {
			cfg.Storage.PrivateRoot = fc.Storage.PrivateRoot
		}
		if fc.Storage.TransDir != "" {
			cfg.Storage.TransDir = fc.Storage.TransDir
		}
		if fc.Storage.CopyBufferBytes != 0 {
			cfg.Storage.CopyBufferBytes = fc.Storage.CopyBufferBytes
		}
	}

	if fc.ContentIndex != nil {
		if fc.ContentIndex.Driver != "" {
			cfg.ContentIndex.Driver = fc.ContentIndex.Driver
		}
		if fc.ContentIndex.DataDir != "" {
			cfg.ContentIndex.DataDir = fc.ContentIndex.DataDir
		}
	}

	if fc.DropFolder != nil {
		if fc.DropFolder.Enabled != nil {
			cfg.DropFolder.Enabled = *fc.DropFolder.Enabled
		}
		if fc.DropFolder.Path != "" {
			cfg.DropFolder.Path = fc.DropFolder.Path
		}
		if fc.DropFolder.DebounceMS != 0 {
			cfg.DropFolder.DebounceMS = fc.DropFolder.DebounceMS
		}
	}

	if fc.Bridge != nil && fc.Bridge.PushBuffer != 0 {
		cfg.Bridge.PushBuffer = fc.Bridge.PushBuffer
	}

	if fc.Logging != nil && fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}

	if fc.HTTP != nil && len(fc.HTTP.Services) > 0 {
		if cfg.HTTP.Services == nil {
			cfg.HTTP.Services = make(map[string]map[string]any)
		}
		for name, svcCfg := range fc.HTTP.Services {
			cfg.HTTP.Services[name] = svcCfg
		}
	}
}

// overlayFlags applies CLI flag values onto cfg.
func overlayFlags(cfg *Config, f FlagOverrides) {
	if f.ListenAddr != nil && *f.ListenAddr != "" {
		cfg.ListenAddr = *f.ListenAddr
	}
	if f.BridgeToken != nil && *f.BridgeToken != "" {
		cfg.Server.BridgeToken = *f.BridgeToken
	}
	if f.PrivateRoot != nil && *f.PrivateRoot != "" {
		cfg.Storage.PrivateRoot = *f.PrivateRoot
	}
	if f.ContentIndexDriver != nil && *f.ContentIndexDriver != "" {
		cfg.ContentIndex.Driver = *f.ContentIndexDriver
	}
	if f.ContentIndexDir != nil && *f.ContentIndexDir != "" {
		cfg.ContentIndex.DataDir = *f.ContentIndexDir
	}
	if f.DropFolderPath != nil && *f.DropFolderPath != "" {
		cfg.DropFolder.Path = *f.DropFolderPath
		cfg.DropFolder.Enabled = true
	}
	if f.LoggingLevel != nil && *f.LoggingLevel != "" {
		cfg.Logging.Level = *f.LoggingLevel
	}
}

// validate checks enum-like and required fields and returns an error for invalid values.
func validate(cfg *Config) error {
	switch cfg.ContentIndex.Driver {
	case "memory", "sqlite":
		// valid
	default:
		return fmt.Errorf("invalid content_index.driver %q: must be one of memory, sqlite", cfg.ContentIndex.Driver)
	}
	if cfg.ContentIndex.Driver == "sqlite" && strings.TrimSpace(cfg.ContentIndex.DataDir) == "" {
		return fmt.Errorf("content_index.data_dir must be set for the sqlite driver")
	}

	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid logging.level %q: must be one of trace, debug, info, warn, error", cfg.Logging.Level)
	}

	if strings.TrimSpace(cfg.Storage.PrivateRoot) == "" {
		return fmt.Errorf("storage.private_root must not be empty")
	}
	if err := validateTransDir(cfg.Storage.TransDir); err != nil {
		return err
	}
	if cfg.Storage.CopyBufferBytes < 0 {
		return fmt.Errorf("invalid storage.copy_buffer_bytes %d: must not be negative", cfg.Storage.CopyBufferBytes)
	}

	if cfg.DropFolder.Enabled && strings.TrimSpace(cfg.DropFolder.Path) == "" {
		return fmt.Errorf("drop_folder.path must be set when the drop folder is enabled")
	}
	if cfg.DropFolder.DebounceMS < 0 {
		return fmt.Errorf("invalid drop_folder.debounce_ms %d: must not be negative", cfg.DropFolder.DebounceMS)
	}

	if cfg.Bridge.PushBuffer < 1 {
		return fmt.Errorf("invalid bridge.push_buffer %d: must be at least 1", cfg.Bridge.PushBuffer)
	}

	return nil
}

// validateTransDir requires a single relative path segment.
func validateTransDir(dir string) error {
	switch {
	case strings.TrimSpace(dir) == "":
		return fmt.Errorf("invalid storage.trans_dir: must not be empty")
	case strings.Contains(dir, ".."):
		return fmt.Errorf("invalid storage.trans_dir %q: must not contain '..'", dir)
	case strings.ContainsAny(dir, `/\`):
		return fmt.Errorf("invalid storage.trans_dir %q: must be a single directory name", dir)
	}
	return nil
}
