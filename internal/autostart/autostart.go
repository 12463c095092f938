// Package autostart registers the controller with the Windows Task
// Scheduler so the extension is attached again on every logon or boot.
package autostart

import "fmt"

// Mode determines when and as whom the autostart task runs.
type Mode int

const (
	UserMode   Mode = iota // On logon of the installing user, highest run level
	SystemMode             // At boot, as SYSTEM
)

func (m Mode) String() string {
	switch m {
	case UserMode:
		return "user"
	case SystemMode:
		return "system"
	default:
		return "unknown"
	}
}

// ParseMode parses "user" or "system".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "user":
		return UserMode, nil
	case "system":
		return SystemMode, nil
	default:
		return 0, fmt.Errorf("invalid autostart mode %q (expected \"user\" or \"system\")", s)
	}
}
