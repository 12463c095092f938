package lifecycle

import "context"

// Loader attaches and detaches the extension module in the compositor.
// Both operations are idempotent.
type Loader interface {
	Attach(ctx context.Context) error
	Detach(ctx context.Context) error
}

// Persistence manages the OS autostart registration of the extension.
type Persistence interface {
	IsRegistered(ctx context.Context) (bool, error)
	Register(ctx context.Context) error
	Unregister(ctx context.Context) error
}

// Symbols provisions the debug symbols the extension needs for the running
// OS build. Fetch is all-or-nothing.
type Symbols interface {
	Available(ctx context.Context) (bool, error)
	Fetch(ctx context.Context) error
}

// NotifyKind identifies a direct notification to the loaded extension. The
// value travels as the message wParam.
type NotifyKind uintptr

const (
	// NotifyRefresh asks the extension to reload its configuration.
	NotifyRefresh NotifyKind = iota + 1
)

func (k NotifyKind) String() string {
	switch k {
	case NotifyRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Notifier signals the compositor and the loaded extension.
type Notifier interface {
	BroadcastThemeChanged() error
	NotifyExtension(kind NotifyKind) error
}

// Locker serialises concurrent controller runs. Lock returns ErrBusy when
// another run holds the lock.
type Locker interface {
	Lock() (unlock func(), err error)
}
