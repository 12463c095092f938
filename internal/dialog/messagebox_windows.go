//go:build windows

package dialog

import (
	"golang.org/x/sys/windows"

	"github.com/dwmblurglass/controller/internal/lifecycle"
)

const (
	mbIconError       = 0x00000010
	mbIconWarning     = 0x00000030
	mbIconInformation = 0x00000040
	mbTopmost         = 0x00040000
)

// MessageBox shows notices as modal message boxes.
type MessageBox struct{}

// NewNative returns the platform's native presenter.
func NewNative() Presenter { return MessageBox{} }

// Show blocks until the user dismisses the message box.
func (MessageBox) Show(n lifecycle.Notice) {
	text, err := windows.UTF16PtrFromString(n.Text)
	if err != nil {
		return
	}
	title, err := windows.UTF16PtrFromString(n.Title)
	if err != nil {
		return
	}
	flags := uint32(mbIconInformation)
	switch n.Level {
	case lifecycle.LevelError:
		flags = mbIconError
	case lifecycle.LevelWarning:
		flags = mbIconWarning
	}
	if n.Topmost {
		flags |= mbTopmost
	}
	windows.MessageBox(0, text, title, flags)
}
