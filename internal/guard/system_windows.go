//go:build windows

package guard

import (
	"fmt"
	"os"
	"path/filepath"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// sFalse is returned by CoInitializeEx when COM is already initialised on
// the thread.
const sFalse = 1

type osSystem struct{}

// NewOS returns the System of the running process.
func NewOS() System { return osSystem{} }

func (osSystem) IsElevated() (bool, error) {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token)
	if err != nil {
		return false, fmt.Errorf("cannot check elevation: %w", err)
	}
	defer token.Close()
	return token.IsElevated(), nil
}

func (osSystem) ResolveKnownFolder(id KnownFolder) (string, error) {
	switch id {
	case KnownFolderProfile:
		return windows.KnownFolderPath(windows.FOLDERID_Profile, 0)
	default:
		return "", fmt.Errorf("unknown known folder %d", id)
	}
}

func (osSystem) WorkingDir() (string, error) {
	return executableDir()
}

// InitCOM initialises a single-threaded apartment. The caller must have
// locked its goroutine to the OS thread.
func (osSystem) InitCOM() (func(), error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		if !ok || oleErr.Code() != sFalse {
			return nil, err
		}
	}
	return ole.CoUninitialize, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
