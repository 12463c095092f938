// Package notify signals the desktop compositor and the loaded extension.
package notify

import "errors"

// ErrCompositorWindowNotFound is returned when the compositor's top-level
// window cannot be found.
var ErrCompositorWindowNotFound = errors.New("notify: compositor window not found")

const (
	// compositorWindowClass is the window class of the compositor's main window.
	compositorWindowClass = "Dwm"

	// notifyMessageName is registered with RegisterWindowMessage; the
	// extension listens for it on the compositor window.
	notifyMessageName = "DWMBlurGlass_Notify"
)
