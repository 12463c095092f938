//go:build !windows

package dialog

import "os"

// NewNative returns the platform's native presenter. Without message boxes
// notices go to stderr.
func NewNative() Presenter { return NewWriter(os.Stderr) }
