// Package platform provides an OS abstraction layer for the facts the
// symbol provisioner needs about the running system.
// Each supported OS implements the Platform interface.
package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Platform provides OS-specific functionality.
type Platform interface {
	// Name returns the platform name (windows, stub).
	Name() string

	// OSBuild returns an identifier of the running OS build. It changes
	// whenever an OS update may have replaced the compositor's modules.
	OSBuild(ctx context.Context) (string, error)

	// SystemDir returns the directory holding the compositor's modules.
	SystemDir() (string, error)
}

// osBuild asks gopsutil for the platform version string, e.g.
// "10.0.22631.2861 Build 22631.2861" on Windows.
func osBuild(ctx context.Context) (string, error) {
	name, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("querying platform information: %w", err)
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return "", fmt.Errorf("empty platform version for %q", name)
	}
	return version, nil
}
