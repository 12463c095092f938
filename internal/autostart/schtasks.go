package autostart

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// autostartCommand is the command token the scheduled task runs.
const autostartCommand = "loaddll"

// runFunc runs a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// TaskScheduler manages the autostart task through schtasks.exe.
type TaskScheduler struct {
	name     string
	execPath string
	mode     Mode
	logger   *zap.Logger
	run      runFunc
}

// NewTaskScheduler returns a TaskScheduler that registers execPath under the
// task name.
func NewTaskScheduler(name, execPath string, mode Mode, logger *zap.Logger) *TaskScheduler {
	return &TaskScheduler{
		name:     name,
		execPath: execPath,
		mode:     mode,
		logger:   logger.Named("autostart"),
		run:      runCommand,
	}
}

// IsRegistered reports whether the task exists.
func (t *TaskScheduler) IsRegistered(ctx context.Context) (bool, error) {
	_, err := t.run(ctx, "schtasks", "/Query", "/TN", t.name)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("querying scheduled task: %w", err)
}

// Register creates or replaces the task.
func (t *TaskScheduler) Register(ctx context.Context) error {
	args := []string{
		"/Create", "/F",
		"/TN", t.name,
		"/TR", fmt.Sprintf("\"%s\" %s", t.execPath, autostartCommand),
		"/RL", "HIGHEST",
	}
	if t.mode == SystemMode {
		args = append(args, "/SC", "ONSTART", "/RU", "SYSTEM")
	} else {
		args = append(args, "/SC", "ONLOGON")
	}
	if out, err := t.run(ctx, "schtasks", args...); err != nil {
		return commandError(out, err)
	}
	t.logger.Info("Registered scheduled task",
		zap.String("task", t.name), zap.Stringer("mode", t.mode))
	return nil
}

// Unregister deletes the task.
func (t *TaskScheduler) Unregister(ctx context.Context) error {
	if out, err := t.run(ctx, "schtasks", "/Delete", "/F", "/TN", t.name); err != nil {
		return commandError(out, err)
	}
	t.logger.Info("Deleted scheduled task", zap.String("task", t.name))
	return nil
}

// commandError prefers the tool's own message over the exit status.
func commandError(out []byte, err error) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return errors.New(msg)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.CombinedOutput()
}
