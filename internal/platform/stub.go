//go:build !windows

// Stub Platform implementation for non-Windows builds, used during
// development on macOS/Linux.
package platform

import (
	"context"
	"errors"
)

// StubPlatform is a Platform for non-Windows operating systems. There is no
// compositor, so SystemDir always fails.
type StubPlatform struct{}

// New creates a stub platform instance for non-Windows systems.
func New() Platform {
	return &StubPlatform{}
}

// Name returns the platform identifier.
func (p *StubPlatform) Name() string { return "stub" }

// OSBuild returns the host platform version.
func (p *StubPlatform) OSBuild(ctx context.Context) (string, error) {
	return osBuild(ctx)
}

// SystemDir is not available on non-Windows platforms.
func (p *StubPlatform) SystemDir() (string, error) {
	return "", errors.New("platform: no compositor system directory on this OS")
}
