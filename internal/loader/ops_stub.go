//go:build !windows

package loader

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("loader: only supported on Windows")

type nativeOps struct{}

func (nativeOps) ModuleBase(int32, string) (uintptr, bool, error) {
	return 0, false, errUnsupported
}

func (nativeOps) Inject(int32, string, time.Duration) error { return errUnsupported }

func (nativeOps) Eject(int32, uintptr, time.Duration) error { return errUnsupported }
