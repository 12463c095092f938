// Package lifecycle implements the command-driven lifecycle of the blur
// extension: it selects one transition per run and sequences the calls to
// the loader, symbol, persistence and notification collaborators.
package lifecycle

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const defaultSymbolHost = "msdl.microsoft.com"

// Controller dispatches a Command to its transition. It holds no state
// across runs.
type Controller struct {
	loader   Loader
	persist  Persistence
	symbols  Symbols
	notifier Notifier
	locker   Locker
	logger   *zap.Logger

	symbolHost string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocker serialises transitions through l.
func WithLocker(l Locker) Option {
	return func(c *Controller) { c.locker = l }
}

// WithSymbolHost sets the host named in the symbol download failure notice.
func WithSymbolHost(host string) Option {
	return func(c *Controller) {
		if host != "" {
			c.symbolHost = host
		}
	}
}

// New creates a Controller over the given collaborators.
func New(loader Loader, persist Persistence, symbols Symbols, notifier Notifier, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		loader:     loader,
		persist:    persist,
		symbols:    symbols,
		notifier:   notifier,
		logger:     logger.Named("lifecycle"),
		symbolHost: defaultSymbolHost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch runs the transition selected by cmd and returns its outcome.
// CommandNone runs nothing and succeeds.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) Outcome {
	var t transition
	switch cmd {
	case CommandNone:
		c.logger.Debug("No command, nothing to do")
		return Outcome{Command: CommandNone}
	case CommandLoadExtension:
		t = c.loadExtension()
	case CommandUnloadExtension:
		t = c.unloadExtension()
	case CommandInstall:
		t = c.install()
	case CommandUninstall:
		t = c.uninstall()
	case CommandDownloadSymbol:
		t = c.downloadSymbol()
	case CommandRefresh:
		t = c.refresh()
	default:
		c.logger.Warn("Unknown command value", zap.Int("command", int(cmd)))
		return Outcome{Command: CommandNone}
	}

	if c.locker != nil {
		unlock, err := c.locker.Lock()
		if err != nil {
			if errors.Is(err, ErrBusy) {
				c.logger.Info("Another instance is running, exiting", zap.Stringer("command", cmd))
			} else {
				c.logger.Error("Failed to acquire instance lock", zap.Error(err))
			}
			return Outcome{Command: cmd, Err: err}
		}
		defer unlock()
	}

	c.logger.Info("Running transition", zap.Stringer("command", cmd))
	out := c.execute(ctx, cmd, t)
	if out.Failed() {
		c.logger.Error("Transition failed", zap.Stringer("command", cmd), zap.Error(out.Err),
			zap.Strings("committed", out.Committed))
	} else {
		c.logger.Info("Transition completed", zap.Stringer("command", cmd),
			zap.Strings("committed", out.Committed))
	}
	return out
}
