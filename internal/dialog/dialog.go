// Package dialog presents lifecycle notices to the user.
package dialog

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/dwmblurglass/controller/internal/lifecycle"
)

// Presenter shows a notice to the user.
type Presenter interface {
	Show(n lifecycle.Notice)
}

// Writer prints notices as single lines, for consoles and automation.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Presenter writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Show writes "<level>: <title>: <text>".
func (p *Writer) Show(n lifecycle.Notice) {
	fmt.Fprintf(p.w, "%s: %s: %s\n", n.Level, n.Title, n.Text)
}

// Logged wraps a Presenter and logs every notice before showing it.
type Logged struct {
	next   Presenter
	logger *zap.Logger
}

// WithLogging returns a Presenter that logs notices and forwards them to next.
func WithLogging(next Presenter, logger *zap.Logger) *Logged {
	return &Logged{next: next, logger: logger.Named("dialog")}
}

// Show logs n at a level matching its severity and forwards it.
func (p *Logged) Show(n lifecycle.Notice) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("text", n.Text)}
	switch n.Level {
	case lifecycle.LevelError:
		p.logger.Error("Notice", fields...)
	case lifecycle.LevelWarning:
		p.logger.Warn("Notice", fields...)
	default:
		p.logger.Info("Notice", fields...)
	}
	p.next.Show(n)
}
