package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("logging:\n  level: \"warn\"\nui:\n  dialogs: true")
	t.Setenv("DBG_LOG_LEVEL", "error")
	cli := CLIOverrides{NoDialog: true, LogLevel: "debug"}

	cfg, err := LoadLayered(cli, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want CLI override", cfg.Logging.Level)
	}
	if cfg.UI.Dialogs {
		t.Error("Dialogs should be disabled by --no-dialog")
	}
}

func TestLoadLayered_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwmblurglass.yaml")
	data := "symbols:\n  server_url: \"https://file.example.com/symbols\"\n  retries: 5\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DBG_SYMBOL_SERVER", "https://env.example.com/symbols")

	cfg, err := LoadLayered(CLIOverrides{}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Symbols.ServerURL != "https://env.example.com/symbols" {
		t.Errorf("ServerURL = %q, want env override", cfg.Symbols.ServerURL)
	}
	if cfg.Symbols.Retries != 5 {
		t.Errorf("Retries = %d, want file value", cfg.Symbols.Retries)
	}
}

func TestLoadLayered_FileOverridesEmbedded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwmblurglass.yaml")
	if err := os.WriteFile(path, []byte("persistence:\n  task_name: Custom\n"), 0644); err != nil {
		t.Fatal(err)
	}
	embedded := []byte("persistence:\n  task_name: Embedded\n  mode: system\n")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Persistence.TaskName != "Custom" {
		t.Errorf("TaskName = %q, want file value", cfg.Persistence.TaskName)
	}
	if cfg.Persistence.Mode != "system" {
		t.Errorf("Mode = %q, want embedded value", cfg.Persistence.Mode)
	}
}

func TestLoadLayered_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Extension.AttachTimeout.Seconds() != 10 {
		t.Errorf("AttachTimeout = %v, want 10s default", cfg.Extension.AttachTimeout.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadLayered_BadDuration(t *testing.T) {
	if _, err := LoadLayered(CLIOverrides{}, []byte("symbols:\n  timeout: soon\n"), ""); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"no process":     func(c *Config) { c.Extension.Process = "" },
		"ftp server":     func(c *Config) { c.Symbols.ServerURL = "ftp://msdl.microsoft.com" },
		"no modules":     func(c *Config) { c.Symbols.Modules = nil },
		"negative retry": func(c *Config) { c.Symbols.Retries = -1 },
		"no task":        func(c *Config) { c.Persistence.TaskName = "" },
		"bad mode":       func(c *Config) { c.Persistence.Mode = "boot" },
		"no lock name":   func(c *Config) { c.Instance.Name = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolvePaths(filepath.Join("opt", "dbg"))
	if cfg.Extension.DLLPath != filepath.Join("opt", "dbg", "DWMBlurGlass.dll") {
		t.Errorf("DLLPath = %q", cfg.Extension.DLLPath)
	}
	if cfg.Symbols.Dir != filepath.Join("opt", "dbg", "data", "symbols") {
		t.Errorf("Symbols.Dir = %q", cfg.Symbols.Dir)
	}
}

func TestSymbolHost(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.SymbolHost(); got != "msdl.microsoft.com" {
		t.Errorf("SymbolHost() = %q", got)
	}
}
