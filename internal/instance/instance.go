// Package instance keeps two controller runs from racing on the compositor
// and the autostart registration.
package instance

import "go.uber.org/zap"

// Mutex is a named, session-wide lock. It satisfies lifecycle.Locker.
type Mutex struct {
	name   string
	logger *zap.Logger
}

// New returns a Mutex with the given name.
func New(name string, logger *zap.Logger) *Mutex {
	return &Mutex{name: name, logger: logger.Named("instance")}
}
