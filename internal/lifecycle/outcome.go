package lifecycle

import "errors"

// ErrBusy is returned when another controller instance holds the run lock.
var ErrBusy = errors.New("lifecycle: another instance is running")

// Level is the severity a Notice is presented with.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is the user-visible report of a run. How it is shown (dialog,
// log line, stderr) is decided outside this package.
type Notice struct {
	Title string
	Text  string
	Level Level
	// Topmost asks the presenter to keep the message above other windows.
	Topmost bool
}

// StepRecord traces one step of a transition.
type StepRecord struct {
	Name     string
	Blocking bool
	Skipped  bool
	Err      error
}

// Outcome is the structured result of a dispatched command.
type Outcome struct {
	Command Command

	// Err is the failure surfaced to the user. Nil means success.
	Err error

	// Notice is what the user should see. Nil means the run is silent.
	Notice *Notice

	// Committed lists durable effects that completed, in order. It is not
	// rolled back when a later step fails.
	Committed []string

	// Warnings aggregates failures of best-effort steps.
	Warnings error

	Steps []StepRecord
}

// Failed reports whether the outcome carries a surfaced failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// HasCommitted reports whether the named effect completed during the run.
func (o Outcome) HasCommitted(effect string) bool {
	for _, c := range o.Committed {
		if c == effect {
			return true
		}
	}
	return false
}
