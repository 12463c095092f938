//go:build !windows

package notify

import (
	"errors"

	"go.uber.org/zap"

	"github.com/dwmblurglass/controller/internal/lifecycle"
)

var errUnsupported = errors.New("notify: only supported on Windows")

// Notifier is a no-op notifier for non-Windows platforms.
type Notifier struct {
	logger *zap.Logger
}

// New returns a Notifier that reports every call as unsupported.
func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger.Named("notify")}
}

// BroadcastThemeChanged always fails on non-Windows platforms.
func (n *Notifier) BroadcastThemeChanged() error { return errUnsupported }

// NotifyExtension always fails on non-Windows platforms.
func (n *Notifier) NotifyExtension(lifecycle.NotifyKind) error { return errUnsupported }
