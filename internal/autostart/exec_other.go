//go:build !windows

package autostart

import "os/exec"

func hideWindow(*exec.Cmd) {}
