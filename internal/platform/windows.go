//go:build windows

// Windows-specific Platform implementation.
package platform

import (
	"context"

	"golang.org/x/sys/windows"
)

// WindowsPlatform implements Platform for Windows systems.
type WindowsPlatform struct{}

// New creates a new Windows platform instance.
func New() Platform {
	return &WindowsPlatform{}
}

// Name returns the platform identifier.
func (p *WindowsPlatform) Name() string { return "windows" }

// OSBuild returns the Windows version including the build revision.
func (p *WindowsPlatform) OSBuild(ctx context.Context) (string, error) {
	return osBuild(ctx)
}

// SystemDir returns the System32 directory.
func (p *WindowsPlatform) SystemDir() (string, error) {
	return windows.GetSystemDirectory()
}
