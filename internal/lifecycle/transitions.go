package lifecycle

import (
	"context"
	"fmt"
)

const titlePrefix = "DWMBlurGlass: "

// Effects recorded in Outcome.Committed.
const (
	EffectAttach       = "attach"
	EffectDetach       = "detach"
	EffectRegister     = "register"
	EffectUnregister   = "unregister"
	EffectFetchSymbols = "fetch-symbols"
)

func errorNotice(title, prefix string) func(error) *Notice {
	return func(err error) *Notice {
		return &Notice{Title: titlePrefix + title, Text: prefix + err.Error(), Level: LevelError}
	}
}

func (c *Controller) attachStep(title string, when func(*run) bool) step {
	return step{
		name:     "attach",
		blocking: true,
		effect:   EffectAttach,
		when:     when,
		do: func(ctx context.Context, _ *run) error {
			return c.loader.Attach(ctx)
		},
		fail: errorNotice(title, "Failed to load component! Error message: "),
	}
}

func (c *Controller) broadcastStep(when func(*run) bool) step {
	return step{
		name: "broadcast",
		when: when,
		do: func(context.Context, *run) error {
			return c.notifier.BroadcastThemeChanged()
		},
	}
}

// checkRegistrationStep reads the persistence state into r.registered. When
// blocking, a query failure is reported with prefix under title.
func (c *Controller) checkRegistrationStep(blocking bool, title, prefix string, then func(r *run)) step {
	s := step{
		name:     "check-registration",
		blocking: blocking,
		do: func(ctx context.Context, r *run) error {
			registered, err := c.persist.IsRegistered(ctx)
			if err != nil {
				return fmt.Errorf("query autostart registration: %w", err)
			}
			r.registered = registered
			if then != nil {
				then(r)
			}
			return nil
		},
	}
	if blocking {
		s.fail = errorNotice(title, prefix)
	}
	return s
}

func registered(r *run) bool       { return r.registered }
func symbolsAvailable(r *run) bool { return r.symbolsAvailable }

// loadExtension attaches the extension and reports failures verbatim.
func (c *Controller) loadExtension() transition {
	return transition{steps: []step{{
		name:     "attach",
		blocking: true,
		effect:   EffectAttach,
		do: func(ctx context.Context, _ *run) error {
			return c.loader.Attach(ctx)
		},
		fail: errorNotice("loaddll error", ""),
	}}}
}

// unloadExtension detaches the extension and reports failures verbatim.
func (c *Controller) unloadExtension() transition {
	return transition{steps: []step{{
		name:     "detach",
		blocking: true,
		effect:   EffectDetach,
		do: func(ctx context.Context, _ *run) error {
			return c.loader.Detach(ctx)
		},
		fail: errorNotice("unloaddll error", ""),
	}}}
}

// install registers autostart, attaches the extension when symbols are
// present and refreshes the compositor. A failed attach does not roll back
// the registration.
func (c *Controller) install() transition {
	const failPrefix = "Install failed! Error message: "
	return transition{
		steps: []step{
			c.checkRegistrationStep(true, "install error", failPrefix, func(r *run) {
				if r.registered {
					r.finish(nil)
				}
			}),
			{
				name:     "register",
				blocking: true,
				effect:   EffectRegister,
				do: func(ctx context.Context, _ *run) error {
					return c.persist.Register(ctx)
				},
				fail: errorNotice("install error", failPrefix),
			},
			{
				name: "query-symbols",
				do: func(ctx context.Context, r *run) error {
					ok, err := c.symbols.Available(ctx)
					if err != nil {
						return fmt.Errorf("query symbols: %w", err)
					}
					r.symbolsAvailable = ok
					return nil
				},
			},
			c.attachStep("install error", symbolsAvailable),
			c.broadcastStep(nil),
		},
		report: func(r *run) *Notice {
			n := &Notice{Title: titlePrefix + "install", Text: "Install successfully!", Level: LevelInfo}
			if !r.symbolsAvailable {
				n.Text += " But you haven't downloaded a valid symbol file yet," +
					` run "downloadsym" to make DWMBlurGlass work!`
			}
			return n
		},
	}
}

// uninstall detaches the extension first, then removes the autostart
// registration if there is one.
func (c *Controller) uninstall() transition {
	const failPrefix = "Uninstall failed! Error message: "
	return transition{
		steps: []step{
			{
				name: "detach",
				do: func(ctx context.Context, _ *run) error {
					return c.loader.Detach(ctx)
				},
			},
			c.checkRegistrationStep(true, "uninstall error", failPrefix, func(r *run) {
				if !r.registered {
					r.finish(nil)
				}
			}),
			{
				name:     "unregister",
				blocking: true,
				effect:   EffectUnregister,
				do: func(ctx context.Context, _ *run) error {
					return c.persist.Unregister(ctx)
				},
				fail: errorNotice("uninstall error", failPrefix),
			},
		},
		report: func(*run) *Notice {
			return &Notice{Title: titlePrefix + "uninstall success", Text: "Uninstall successfully.", Level: LevelInfo}
		},
	}
}

// downloadSymbol fetches missing symbols and, when autostart is registered,
// attaches the extension so the effect shows up without a restart.
func (c *Controller) downloadSymbol() transition {
	return transition{
		steps: []step{
			{
				name: "check-symbols",
				do: func(ctx context.Context, r *run) error {
					ok, err := c.symbols.Available(ctx)
					if err != nil {
						return fmt.Errorf("query symbols: %w", err)
					}
					if ok {
						r.symbolsAvailable = true
						r.finish(nil)
					}
					return nil
				},
			},
			{
				name:     "fetch-symbols",
				blocking: true,
				effect:   EffectFetchSymbols,
				do: func(ctx context.Context, r *run) error {
					if err := c.symbols.Fetch(ctx); err != nil {
						return err
					}
					r.symbolsAvailable = true
					return nil
				},
				fail: func(error) *Notice {
					return &Notice{
						Title: titlePrefix + "Download",
						Text:  fmt.Sprintf("Download failed! Unable to download symbol files from %q.", c.symbolHost),
						Level: LevelError,
					}
				},
			},
			c.checkRegistrationStep(false, "", "", nil),
			c.attachStep("Download", registered),
			c.broadcastStep(registered),
		},
	}
}

// refresh pokes the extension and, when autostart is registered, the
// compositor. It never fails.
func (c *Controller) refresh() transition {
	return transition{
		steps: []step{
			{
				name: "notify",
				do: func(context.Context, *run) error {
					return c.notifier.NotifyExtension(NotifyRefresh)
				},
			},
			c.checkRegistrationStep(false, "", "", nil),
			c.broadcastStep(registered),
		},
	}
}
