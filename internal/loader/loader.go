// Package loader attaches the extension module to, and detaches it from,
// every running compositor process.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ErrCompositorNotFound is returned when no compositor process is running.
var ErrCompositorNotFound = errors.New("compositor process not found")

// Config holds extension loading settings.
type Config struct {
	DLLPath string
	Process string
	Timeout time.Duration
}

// processOps performs the per-process module operations.
type processOps interface {
	// ModuleBase returns the base address of module in pid, if loaded.
	ModuleBase(pid int32, module string) (base uintptr, loaded bool, err error)
	Inject(pid int32, dllPath string, timeout time.Duration) error
	Eject(pid int32, base uintptr, timeout time.Duration) error
}

// Loader attaches and detaches the extension DLL. Both operations are
// idempotent per process.
type Loader struct {
	cfg    Config
	logger *zap.Logger

	ops  processOps
	find func(ctx context.Context, name string) ([]int32, error)
}

// New creates a Loader.
func New(cfg Config, logger *zap.Logger) *Loader {
	return &Loader{
		cfg:    cfg,
		logger: logger.Named("loader"),
		ops:    nativeOps{},
		find:   findProcesses,
	}
}

// Attach loads the extension into every compositor process that does not
// have it loaded yet.
func (l *Loader) Attach(ctx context.Context) error {
	info, err := os.Stat(l.cfg.DLLPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("extension module %s is missing", l.cfg.DLLPath)
	}
	pids, err := l.compositors(ctx)
	if err != nil {
		return err
	}
	module := filepath.Base(l.cfg.DLLPath)
	for _, pid := range pids {
		_, loaded, err := l.ops.ModuleBase(pid, module)
		if err != nil {
			return fmt.Errorf("inspecting process %d: %w", pid, err)
		}
		if loaded {
			l.logger.Debug("Extension already attached", zap.Int32("pid", pid))
			continue
		}
		if err := l.ops.Inject(pid, l.cfg.DLLPath, l.cfg.Timeout); err != nil {
			return fmt.Errorf("attaching to process %d: %w", pid, err)
		}
		_, loaded, err = l.ops.ModuleBase(pid, module)
		if err != nil {
			return fmt.Errorf("inspecting process %d: %w", pid, err)
		}
		if !loaded {
			return fmt.Errorf("attaching to process %d: %s did not load", pid, module)
		}
		l.logger.Info("Extension attached", zap.Int32("pid", pid), zap.String("module", module))
	}
	return nil
}

// Detach unloads the extension from every compositor process that has it
// loaded.
func (l *Loader) Detach(ctx context.Context) error {
	pids, err := l.compositors(ctx)
	if err != nil {
		return err
	}
	module := filepath.Base(l.cfg.DLLPath)
	for _, pid := range pids {
		base, loaded, err := l.ops.ModuleBase(pid, module)
		if err != nil {
			return fmt.Errorf("inspecting process %d: %w", pid, err)
		}
		if !loaded {
			l.logger.Debug("Extension not attached", zap.Int32("pid", pid))
			continue
		}
		if err := l.ops.Eject(pid, base, l.cfg.Timeout); err != nil {
			return fmt.Errorf("detaching from process %d: %w", pid, err)
		}
		l.logger.Info("Extension detached", zap.Int32("pid", pid), zap.String("module", module))
	}
	return nil
}

func (l *Loader) compositors(ctx context.Context) ([]int32, error) {
	pids, err := l.find(ctx, l.cfg.Process)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	if len(pids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCompositorNotFound, l.cfg.Process)
	}
	return pids, nil
}

// findProcesses returns the pids of all processes named name, ignoring case.
// Processes that cannot be inspected are skipped.
func findProcesses(ctx context.Context, name string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var pids []int32
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(n, name) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}
