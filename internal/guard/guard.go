// Package guard decides whether the controller may run at all: the process
// must be elevated, must not run from inside the user profile (a sandboxed
// copy) and must be able to initialise COM.
package guard

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dwmblurglass/controller/internal/lifecycle"
)

// KnownFolder identifies an OS known folder.
type KnownFolder int

const (
	// KnownFolderProfile is the current user's profile directory.
	KnownFolderProfile KnownFolder = iota
)

// System exposes the OS facts the guard checks.
type System interface {
	IsElevated() (bool, error)
	ResolveKnownFolder(id KnownFolder) (string, error)
	// WorkingDir returns the directory the controller runs from.
	WorkingDir() (string, error)
	InitCOM() (release func(), err error)
}

// Reason explains an aborted run.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotElevated
	ReasonSandboxed
	ReasonCOMInit
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotElevated:
		return "not elevated"
	case ReasonSandboxed:
		return "sandboxed"
	case ReasonCOMInit:
		return "com init failed"
	default:
		return "unknown"
	}
}

// Verdict is the guard's decision. A nil Notice means the abort is silent.
type Verdict struct {
	Abort  bool
	Reason Reason
	Notice *lifecycle.Notice
}

// Proceed is the verdict that lets the run continue.
var Proceed = Verdict{}

// Guard runs the environment checks.
type Guard struct {
	sys           System
	logger        *zap.Logger
	skipElevation bool
}

// Option configures a Guard.
type Option func(*Guard)

// SkipElevation disables the elevation check.
func SkipElevation() Option {
	return func(g *Guard) { g.skipElevation = true }
}

// New creates a Guard. Builds tagged "debug" skip the elevation check.
func New(sys System, logger *zap.Logger, opts ...Option) *Guard {
	g := &Guard{
		sys:           sys,
		logger:        logger.Named("guard"),
		skipElevation: debugBuild,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check runs the elevation and sandbox checks.
func (g *Guard) Check() Verdict {
	if !g.skipElevation {
		elevated, err := g.sys.IsElevated()
		if err != nil {
			g.logger.Error("Cannot check elevation", zap.Error(err))
			return Verdict{Abort: true, Reason: ReasonNotElevated}
		}
		if !elevated {
			g.logger.Info("Not running as administrator, exiting")
			return Verdict{Abort: true, Reason: ReasonNotElevated}
		}
	}

	profile, err := g.sys.ResolveKnownFolder(KnownFolderProfile)
	if err != nil {
		g.logger.Warn("Cannot resolve profile folder, skipping sandbox check", zap.Error(err))
		return Proceed
	}
	dir, err := g.sys.WorkingDir()
	if err != nil {
		g.logger.Warn("Cannot resolve working directory, skipping sandbox check", zap.Error(err))
		return Proceed
	}
	if within(dir, profile) {
		g.logger.Warn("Running inside the user profile",
			zap.String("dir", dir), zap.String("profile", profile))
		return Verdict{
			Abort:  true,
			Reason: ReasonSandboxed,
			Notice: &lifecycle.Notice{
				Title:   "DWMBlurGlass: warning",
				Text:    "Running in sandbox!",
				Level:   lifecycle.LevelWarning,
				Topmost: true,
			},
		}
	}
	return Proceed
}

// InitRuntime initialises COM for the calling thread. The returned release
// func is never nil.
func (g *Guard) InitRuntime() (func(), Verdict) {
	release, err := g.sys.InitCOM()
	if err != nil {
		g.logger.Error("COM initialisation failed", zap.Error(err))
		return func() {}, Verdict{
			Abort:  true,
			Reason: ReasonCOMInit,
			Notice: &lifecycle.Notice{
				Title: "DWMBlurGlass",
				Text:  "CoInitialize failed! " + err.Error(),
				Level: lifecycle.LevelError,
			},
		}
	}
	if release == nil {
		release = func() {}
	}
	return release, Proceed
}

// within reports whether dir is root or lies below it. Comparison ignores
// case, as Windows paths do.
func within(dir, root string) bool {
	if dir == "" || root == "" {
		return false
	}
	dir = strings.ToLower(filepath.Clean(dir))
	root = strings.ToLower(filepath.Clean(root))
	if dir == root {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(dir, root)
}
