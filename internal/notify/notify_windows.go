//go:build windows

package notify

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/dwmblurglass/controller/internal/lifecycle"
)

const wmThemeChanged = 0x031A

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW            = user32.NewProc("FindWindowW")
	procPostMessageW           = user32.NewProc("PostMessageW")
	procInvalidateRect         = user32.NewProc("InvalidateRect")
	procRegisterWindowMessageW = user32.NewProc("RegisterWindowMessageW")
)

// Notifier posts window messages to the compositor.
type Notifier struct {
	logger *zap.Logger
}

// New returns a Notifier for the running desktop session.
func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger.Named("notify")}
}

// BroadcastThemeChanged posts WM_THEMECHANGED to the compositor and
// invalidates the whole screen so it redraws immediately.
func (n *Notifier) BroadcastThemeChanged() error {
	hwnd, err := compositorWindow()
	if err != nil {
		return err
	}
	if err := postMessage(hwnd, wmThemeChanged, 0, 0); err != nil {
		return fmt.Errorf("posting theme change: %w", err)
	}
	// InvalidateRect(NULL, NULL, FALSE) repaints every window.
	procInvalidateRect.Call(0, 0, 0)
	n.logger.Debug("Broadcast theme change", zap.Uintptr("hwnd", hwnd))
	return nil
}

// NotifyExtension posts the registered notify message with kind as wParam.
func (n *Notifier) NotifyExtension(kind lifecycle.NotifyKind) error {
	name, err := windows.UTF16PtrFromString(notifyMessageName)
	if err != nil {
		return err
	}
	msg, _, callErr := procRegisterWindowMessageW.Call(uintptr(unsafe.Pointer(name)))
	if msg == 0 {
		return fmt.Errorf("registering notify message: %w", callErr)
	}
	hwnd, err := compositorWindow()
	if err != nil {
		return err
	}
	if err := postMessage(hwnd, uint32(msg), uintptr(kind), 0); err != nil {
		return fmt.Errorf("posting %s notification: %w", kind, err)
	}
	n.logger.Debug("Notified extension", zap.Stringer("kind", kind))
	return nil
}

func compositorWindow() (uintptr, error) {
	class, err := windows.UTF16PtrFromString(compositorWindowClass)
	if err != nil {
		return 0, err
	}
	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(class)), 0)
	if hwnd == 0 {
		return 0, ErrCompositorWindowNotFound
	}
	return hwnd, nil
}

func postMessage(hwnd uintptr, msg uint32, wparam, lparam uintptr) error {
	ok, _, err := procPostMessageW.Call(hwnd, uintptr(msg), wparam, lparam)
	if ok == 0 {
		return err
	}
	return nil
}
