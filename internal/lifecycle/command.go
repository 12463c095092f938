package lifecycle

import "strings"

// Command is the lifecycle transition requested for a single run.
type Command int

const (
	CommandNone Command = iota
	CommandLoadExtension
	CommandUnloadExtension
	CommandInstall
	CommandUninstall
	CommandDownloadSymbol
	CommandRefresh
)

// commandTokens maps the command-line token of each command.
var commandTokens = map[Command]string{
	CommandLoadExtension:   "loaddll",
	CommandUnloadExtension: "unloaddll",
	CommandInstall:         "install",
	CommandUninstall:       "uninstall",
	CommandDownloadSymbol:  "downloadsym",
	CommandRefresh:         "refresh",
}

// ParseCommand matches token case-insensitively against the fixed token set.
// Anything else, including the empty string, yields CommandNone.
func ParseCommand(token string) Command {
	for cmd, t := range commandTokens {
		if strings.EqualFold(token, t) {
			return cmd
		}
	}
	return CommandNone
}

// Token returns the command-line token for c, or "" for CommandNone.
func (c Command) Token() string {
	return commandTokens[c]
}

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandLoadExtension:
		return "LoadExtension"
	case CommandUnloadExtension:
		return "UnloadExtension"
	case CommandInstall:
		return "Install"
	case CommandUninstall:
		return "Uninstall"
	case CommandDownloadSymbol:
		return "DownloadSymbol"
	case CommandRefresh:
		return "Refresh"
	default:
		return "unknown"
	}
}
