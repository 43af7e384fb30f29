package router

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// maxRedirects bounds guard redirect chains
const maxRedirects = 8

var (
	ErrNotActive          = errors.New("router is not active")
	ErrGuardNotResolved   = errors.New("navigation guard returned without calling next")
	ErrGuardResolvedTwice = errors.New("navigation guard called next more than once")
	ErrRedirectLoop       = errors.New("too many guard redirects")
)

// Navigation describes a completed transition attempt
type Navigation struct {
	Requested  Route
	From       Route
	To         Route
	Redirected bool
	Blocked    bool
}

// Router resolves navigations through the guard and tracks the current route
type Router struct {
	table  *Table
	auth   AuthState
	guard  GuardFunc
	logger zerolog.Logger

	mu         sync.RWMutex
	active     bool
	current    Route
	hasCurrent bool
}

// Option configures a Router
type Option func(*Router)

// WithGuard replaces the default guard
func WithGuard(g GuardFunc) Option {
	return func(r *Router) { r.guard = g }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates an inactive router. It reads auth state on every navigation
// and never changes it.
func New(table *Table, auth AuthState, opts ...Option) *Router {
	r := &Router{
		table:  table,
		auth:   auth,
		guard:  Guard,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Activate enables navigation
func (r *Router) Activate() {
	r.mu.Lock()
	r.active = true
	r.mu.Unlock()
}

// Active reports whether Activate has been called
func (r *Router) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Table returns the route table
func (r *Router) Table() *Table {
	return r.table
}

// Current returns the current route; ok is false before the first navigation
func (r *Router) Current() (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.hasCurrent
}

// Push navigates to the named route
func (r *Router) Push(name string) (Navigation, error) {
	to, err := r.table.ByName(name)
	if err != nil {
		return Navigation{}, err
	}
	return r.navigate(to)
}

// PushPath navigates to the route registered at path
func (r *Router) PushPath(path string) (Navigation, error) {
	to, err := r.table.ByPath(path)
	if err != nil {
		return Navigation{}, err
	}
	return r.navigate(to)
}

// ForceLocation replaces the current route without consulting the guard,
// the equivalent of a full page load at path.
func (r *Router) ForceLocation(path string) (Route, error) {
	to, err := r.table.ByPath(path)
	if err != nil {
		return Route{}, err
	}

	r.mu.Lock()
	r.current = to
	r.hasCurrent = true
	r.mu.Unlock()

	r.logger.Info().Str("path", path).Msg("Location replaced")
	return to, nil
}

func (r *Router) navigate(requested Route) (Navigation, error) {
	r.mu.RLock()
	active := r.active
	from := r.current
	r.mu.RUnlock()

	if !active {
		return Navigation{}, ErrNotActive
	}

	nav := Navigation{Requested: requested, From: from}
	to := requested

	for hop := 0; ; hop++ {
		if hop > maxRedirects {
			return nav, fmt.Errorf("%w: %d hops starting at %q", ErrRedirectLoop, hop, requested.Name)
		}

		d, err := r.runGuard(to, from)
		if err != nil {
			return nav, err
		}

		switch d.Kind {
		case DecisionAllow:
			r.mu.Lock()
			r.current = to
			r.hasCurrent = true
			r.mu.Unlock()

			nav.To = to
			r.logger.Debug().
				Str("requested", requested.Name).
				Str("to", to.Name).
				Bool("redirected", nav.Redirected).
				Msg("Navigation allowed")
			return nav, nil

		case DecisionBlock:
			nav.To = from
			nav.Blocked = true
			r.logger.Debug().Str("requested", requested.Name).Msg("Navigation blocked")
			return nav, nil

		case DecisionRedirect:
			next, err := r.table.ByName(d.Target)
			if err != nil {
				return nav, fmt.Errorf("guard redirect: %w", err)
			}
			r.logger.Debug().Str("from", to.Name).Str("to", next.Name).Msg("Navigation redirected")
			nav.Redirected = true
			to = next

		default:
			return nav, fmt.Errorf("unknown guard decision %d", d.Kind)
		}
	}
}

// runGuard calls the guard and checks that it resolved exactly once
func (r *Router) runGuard(to, from Route) (Decision, error) {
	var (
		calls    int
		decision Decision
	)
	r.guard(to, from, r.auth, func(d Decision) {
		calls++
		if calls == 1 {
			decision = d
		}
	})

	switch {
	case calls == 0:
		return Decision{}, ErrGuardNotResolved
	case calls > 1:
		return Decision{}, ErrGuardResolvedTwice
	}
	return decision, nil
}
