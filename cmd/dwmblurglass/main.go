// Package main is the entry point of the DWMBlurGlass lifecycle controller.
// It checks the environment, runs the one lifecycle transition named on the
// command line and reports the outcome.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dwmblurglass/controller/internal/autostart"
	"github.com/dwmblurglass/controller/internal/config"
	"github.com/dwmblurglass/controller/internal/dialog"
	"github.com/dwmblurglass/controller/internal/guard"
	"github.com/dwmblurglass/controller/internal/instance"
	"github.com/dwmblurglass/controller/internal/lifecycle"
	"github.com/dwmblurglass/controller/internal/loader"
	"github.com/dwmblurglass/controller/internal/notify"
	"github.com/dwmblurglass/controller/internal/platform"
	"github.com/dwmblurglass/controller/internal/symbols"
)

// version is set at build time via -ldflags.
var version = "dev"

type options struct {
	configPath  string
	logLevel    string
	showVersion bool
	noDialog    bool
	exitCode    bool
}

func main() {
	// COM is initialised per thread; keep every call on the main thread.
	runtime.LockOSThread()

	code := 0
	cmd := newRootCommand(&code)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

func newRootCommand(code *int) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "dwmblurglass [loaddll|unloaddll|install|uninstall|downloadsym|refresh]",
		Short: "Lifecycle controller for the DWMBlurGlass compositor extension",
		Long: `Runs one lifecycle transition of the DWMBlurGlass extension.

Without a command, or with an unknown one, only the environment checks run.
The process exits 0 regardless of outcome unless --exit-code is given.`,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = run(opts, args)
			return nil
		},
	}
	bindFlags(cmd.Flags(), opts)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (default: dwmblurglass.yaml next to the executable)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	fs.BoolVar(&opts.noDialog, "no-dialog", false, "Report outcomes on stderr instead of message boxes")
	fs.BoolVar(&opts.exitCode, "exit-code", false, "Exit 1 when the run fails or is aborted")
}

// Replaced in tests.
var (
	newSystem           = guard.NewOS
	stderr    io.Writer = os.Stderr
)

// run executes one controller invocation and returns the process exit code.
// The environment guard runs before the configuration is read, so an aborted
// run never reports configuration problems.
func run(opts *options, args []string) int {
	if opts.showVersion {
		fmt.Printf("dwmblurglass %s\n", version)
		return 0
	}
	failed := func() int {
		if opts.exitCode {
			return 1
		}
		return 0
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to resolve executable: %v\n", err)
		return failed()
	}
	exeDir := filepath.Dir(exe)

	// Until the configuration is loaded only the flags decide how to log
	// and report.
	boot := config.DefaultConfig()
	if opts.logLevel != "" {
		boot.Logging.Level = opts.logLevel
	}
	bootLogger := initLogger(boot)
	defer bootLogger.Sync()
	presenter := newPresenter(!opts.noDialog)

	// Environment guard
	g := guard.New(newSystem(), bootLogger)
	if v := g.Check(); v.Abort {
		if v.Notice != nil {
			presenter.Show(*v.Notice)
		}
		return failed()
	}
	release, v := g.InitRuntime()
	defer release()
	if v.Abort {
		if v.Notice != nil {
			presenter.Show(*v.Notice)
		}
		return failed()
	}

	// Load configuration
	path := opts.configPath
	if path == "" {
		path = config.Locate(exeDir)
	}
	cfg, err := config.LoadLayered(config.CLIOverrides{NoDialog: opts.noDialog, LogLevel: opts.logLevel}, embeddedConfig, path)
	if err == nil {
		cfg.ResolvePaths(exeDir)
		err = cfg.Validate()
	}
	if err != nil {
		bootLogger.Error("Invalid configuration", zap.String("config", path), zap.Error(err))
		presenter.Show(lifecycle.Notice{
			Title: "DWMBlurGlass: configuration error",
			Text:  err.Error(),
			Level: lifecycle.LevelError,
		})
		return failed()
	}

	// Initialize logger
	logger := initLogger(cfg)
	defer logger.Sync()
	presenter = dialog.WithLogging(newPresenter(cfg.UI.Dialogs), logger)

	plat := platform.New()
	token := strings.Join(args, " ")
	logger.Debug("Starting DWMBlurGlass controller",
		zap.String("version", version),
		zap.String("platform", plat.Name()),
		zap.String("token", token),
		zap.String("config", path))

	ctrl := newController(cfg, exe, plat, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := ctrl.Dispatch(ctx, lifecycle.ParseCommand(token))
	if out.Notice != nil {
		presenter.Show(*out.Notice)
	}
	if out.Failed() {
		return failed()
	}
	return 0
}

// newPresenter returns message boxes when dialogs are enabled and plain
// stderr lines otherwise.
func newPresenter(dialogs bool) dialog.Presenter {
	if dialogs {
		return dialog.NewNative()
	}
	return dialog.NewWriter(stderr)
}

// newController wires the collaborators into a lifecycle controller.
func newController(cfg *config.Config, exe string, plat platform.Platform, logger *zap.Logger) *lifecycle.Controller {
	mode, _ := autostart.ParseMode(cfg.Persistence.Mode) // checked by Validate

	ldr := loader.New(loader.Config{
		DLLPath: cfg.Extension.DLLPath,
		Process: cfg.Extension.Process,
		Timeout: cfg.Extension.AttachTimeout.Duration,
	}, logger)
	tasks := autostart.NewTaskScheduler(cfg.Persistence.TaskName, exe, mode, logger)
	syms := symbols.New(symbols.Config{
		ServerURL: cfg.Symbols.ServerURL,
		Dir:       cfg.Symbols.Dir,
		Modules:   cfg.Symbols.Modules,
		Timeout:   cfg.Symbols.Timeout.Duration,
		Retries:   cfg.Symbols.Retries,
	}, plat, logger)

	opts := []lifecycle.Option{lifecycle.WithSymbolHost(cfg.SymbolHost())}
	if cfg.Instance.Enabled {
		opts = append(opts, lifecycle.WithLocker(instance.New(cfg.Instance.Name, logger)))
	}
	return lifecycle.New(ldr, tasks, syms, notify.New(logger), logger, opts...)
}

// initLogger creates a zap logger based on the configuration.
// It outputs to stderr (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level),
	}

	// File output (structured JSON, if configured)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
