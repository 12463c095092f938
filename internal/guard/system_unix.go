//go:build !windows

package guard

import (
	"fmt"
	"os"
	"path/filepath"
)

type osSystem struct{}

// NewOS returns the System of the running process.
func NewOS() System { return osSystem{} }

func (osSystem) IsElevated() (bool, error) {
	return os.Geteuid() == 0, nil
}

func (osSystem) ResolveKnownFolder(id KnownFolder) (string, error) {
	switch id {
	case KnownFolderProfile:
		return os.UserHomeDir()
	default:
		return "", fmt.Errorf("unknown known folder %d", id)
	}
}

func (osSystem) WorkingDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func (osSystem) InitCOM() (func(), error) {
	return func() {}, nil
}
