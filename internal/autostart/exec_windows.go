//go:build windows

package autostart

import (
	"os/exec"
	"syscall"
)

// hideWindow keeps schtasks from flashing a console window.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
