package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/dwmblurglass/controller/internal/config"
	"github.com/dwmblurglass/controller/internal/guard"
)

type fakeSystem struct {
	profile string
	dir     string
}

func (f fakeSystem) IsElevated() (bool, error) { return true, nil }

func (f fakeSystem) ResolveKnownFolder(guard.KnownFolder) (string, error) {
	return f.profile, nil
}

func (f fakeSystem) WorkingDir() (string, error) { return f.dir, nil }

func (f fakeSystem) InitCOM() (func(), error) { return func() {}, nil }

// withEnvironment swaps the OS facts and the report sink for one test.
func withEnvironment(t *testing.T, sys guard.System) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevSystem, prevStderr := newSystem, stderr
	newSystem = func() guard.System { return sys }
	stderr = &buf
	t.Cleanup(func() { newSystem, stderr = prevSystem, prevStderr })
	return &buf
}

func brokenConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dwmblurglass.yaml")
	if err := os.WriteFile(path, []byte("symbols: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBindFlags(t *testing.T) {
	opts := &options{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs, opts)

	if err := fs.Parse([]string{"--no-dialog", "--exit-code", "--config", "c.yaml", "install"}); err != nil {
		t.Fatal(err)
	}
	if !opts.noDialog || !opts.exitCode || opts.configPath != "c.yaml" {
		t.Errorf("options = %+v", *opts)
	}
	if args := fs.Args(); len(args) != 1 || args[0] != "install" {
		t.Errorf("args = %v, want [install]", args)
	}
}

func TestRootCommand_Version(t *testing.T) {
	code := -1
	cmd := newRootCommand(&code)
	cmd.SetArgs([]string{"--version", "--bogus", "install"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestInitLogger_Level(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"bogus": zapcore.InfoLevel,
	}
	for name, want := range tests {
		cfg := config.DefaultConfig()
		cfg.Logging.Level = name
		logger := initLogger(cfg)
		if !logger.Core().Enabled(want) {
			t.Errorf("%s: level %s disabled", name, want)
		}
		if want > zapcore.DebugLevel && logger.Core().Enabled(want-1) {
			t.Errorf("%s: level %s enabled", name, want-1)
		}
	}
}

func TestRun_GuardAbortHidesConfigError(t *testing.T) {
	profile := t.TempDir()
	out := withEnvironment(t, fakeSystem{profile: profile, dir: filepath.Join(profile, "Downloads")})

	code := run(&options{configPath: brokenConfig(t), noDialog: true, exitCode: true}, []string{"install"})

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "Running in sandbox!") {
		t.Errorf("output %q does not report the sandbox", out.String())
	}
	if strings.Contains(out.String(), "configuration error") {
		t.Errorf("output %q reports the configuration of an aborted run", out.String())
	}
}

func TestRun_ConfigErrorAfterGuard(t *testing.T) {
	root := t.TempDir()
	out := withEnvironment(t, fakeSystem{
		profile: filepath.Join(root, "home"),
		dir:     filepath.Join(root, "opt"),
	})

	code := run(&options{configPath: brokenConfig(t), noDialog: true}, []string{"install"})

	if code != 0 {
		t.Errorf("exit code = %d, want 0 without --exit-code", code)
	}
	if !strings.Contains(out.String(), "DWMBlurGlass: configuration error") {
		t.Errorf("output %q does not report the configuration error", out.String())
	}
}
