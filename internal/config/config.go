// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dwmblurglass/controller/internal/autostart"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "10s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// Config holds all controller configuration.
type Config struct {
	Extension   ExtensionConfig   `yaml:"extension"`
	Symbols     SymbolsConfig     `yaml:"symbols"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Instance    InstanceConfig    `yaml:"instance"`
	Logging     LoggingConfig     `yaml:"logging"`
	UI          UIConfig          `yaml:"ui"`
}

// ExtensionConfig holds extension module settings.
type ExtensionConfig struct {
	DLLPath       string   `yaml:"dll_path"`
	Process       string   `yaml:"process"`
	AttachTimeout Duration `yaml:"attach_timeout"`
}

// SymbolsConfig holds symbol server settings.
type SymbolsConfig struct {
	ServerURL string   `yaml:"server_url"`
	Dir       string   `yaml:"dir"`
	Modules   []string `yaml:"modules"`
	Timeout   Duration `yaml:"timeout"`
	Retries   int      `yaml:"retries"`
}

// PersistenceConfig holds autostart settings.
type PersistenceConfig struct {
	TaskName string `yaml:"task_name"`
	Mode     string `yaml:"mode"`
}

// InstanceConfig holds the single-instance lock settings.
type InstanceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Dialogs bool `yaml:"dialogs"`
}

// DefaultConfig returns the default configuration. Empty paths are resolved
// relative to the executable by ResolvePaths.
func DefaultConfig() *Config {
	return &Config{
		Extension: ExtensionConfig{
			Process:       "dwm.exe",
			AttachTimeout: Duration{10 * time.Second},
		},
		Symbols: SymbolsConfig{
			ServerURL: "https://msdl.microsoft.com/download/symbols",
			Modules:   []string{"uDWM.dll", "dwmcore.dll"},
			Timeout:   Duration{60 * time.Second},
			Retries:   2,
		},
		Persistence: PersistenceConfig{
			TaskName: "DWMBlurGlass_Extend",
			Mode:     "user",
		},
		Instance: InstanceConfig{
			Enabled: true,
			Name:    "_DWMBlurGlass_",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Dialogs: true,
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	NoDialog bool
	LogLevel string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate(exeDir string) string {
	candidates := append([]string{filepath.Join(exeDir, "dwmblurglass.yaml")}, configSearchPaths()...)
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
// An empty filePath means no external file.
func LoadLayered(cli CLIOverrides, embedded []byte, filePath string) (*Config, error) {
	cfg := DefaultConfig()

	// Layer 1: embedded config (lowest priority data layer)
	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	// Layer 2: external YAML file
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
		}
	}

	// Layer 3: environment variables
	applyEnvOverrides(cfg)

	// Layer 4: CLI flags (highest priority)
	if cli.NoDialog {
		cfg.UI.Dialogs = false
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	return cfg, nil
}

// ResolvePaths fills empty paths with their defaults next to the executable.
func (c *Config) ResolvePaths(exeDir string) {
	if c.Extension.DLLPath == "" {
		c.Extension.DLLPath = filepath.Join(exeDir, "DWMBlurGlass.dll")
	}
	if c.Symbols.Dir == "" {
		c.Symbols.Dir = filepath.Join(exeDir, "data", "symbols")
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("DBG_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if server := os.Getenv("DBG_SYMBOL_SERVER"); server != "" {
		cfg.Symbols.ServerURL = server
	}
	if dir := os.Getenv("DBG_SYMBOL_DIR"); dir != "" {
		cfg.Symbols.Dir = dir
	}
}

// SymbolHost returns the host of the symbol server, for user-facing messages.
func (c *Config) SymbolHost() string {
	u, err := url.Parse(c.Symbols.ServerURL)
	if err != nil {
		return c.Symbols.ServerURL
	}
	return u.Host
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Extension.Process == "" {
		return fmt.Errorf("extension process name is required")
	}
	u, err := url.Parse(c.Symbols.ServerURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("symbol server URL must be http(s) (got: %s)", c.Symbols.ServerURL)
	}
	if len(c.Symbols.Modules) == 0 {
		return fmt.Errorf("at least one symbol module is required")
	}
	if c.Symbols.Retries < 0 {
		return fmt.Errorf("symbol retries must not be negative")
	}
	if c.Persistence.TaskName == "" {
		return fmt.Errorf("persistence task name is required")
	}
	if _, err := autostart.ParseMode(c.Persistence.Mode); err != nil {
		return err
	}
	if c.Instance.Enabled && c.Instance.Name == "" {
		return fmt.Errorf("instance lock name is required when the lock is enabled")
	}
	return nil
}
