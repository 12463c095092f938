//go:build windows

package instance

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/dwmblurglass/controller/internal/lifecycle"
)

// Lock creates the named mutex. If it already exists another instance is
// running and lifecycle.ErrBusy is returned.
func (m *Mutex) Lock() (func(), error) {
	name, err := windows.UTF16PtrFromString(m.name)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateMutex(nil, false, name)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return nil, lifecycle.ErrBusy
	}
	if err != nil {
		return nil, fmt.Errorf("creating mutex %s: %w", m.name, err)
	}
	m.logger.Debug("Acquired instance lock", zap.String("name", m.name))
	return func() { windows.CloseHandle(h) }, nil
}
