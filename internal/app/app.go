// Package app wires the session store, gateway and router together and owns
// the only response to unauthorized API calls.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sessionguard/sessionguard/internal/gateway"
	"github.com/sessionguard/sessionguard/internal/router"
	"github.com/sessionguard/sessionguard/internal/session"
)

var (
	ErrAlreadyStarted = errors.New("app already started")
	ErrNotStarted     = errors.New("app not started")
)

// App is one running client
type App struct {
	store     *session.Store
	gw        *gateway.Gateway
	router    *router.Router
	loginPath string
	logger    zerolog.Logger

	mu               sync.Mutex
	started          bool
	forcedRedirects  int
	lastUnauthorized int
}

// New builds an App and registers it as the gateway's unauthorized handler
func New(store *session.Store, gw *gateway.Gateway, rt *router.Router, loginPath string, logger zerolog.Logger) *App {
	a := &App{
		store:     store,
		gw:        gw,
		router:    rt,
		loginPath: loginPath,
		logger:    logger,
	}
	gw.OnUnauthorized(a.handleUnauthorized)
	return a
}

// Start loads the page at path: it waits for the session refresh, then
// activates the router and runs the first guarded navigation. If the refresh
// was rejected the location will already have moved to the login page.
func (a *App) Start(ctx context.Context, path string) (router.Navigation, error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return router.Navigation{}, ErrAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	if path == "" {
		path = "/"
	}
	if _, err := a.router.ForceLocation(path); err != nil {
		return router.Navigation{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	authenticated := a.store.FetchUser(ctx)
	a.logger.Debug().Bool("authenticated", authenticated).Msg("Session resolved")

	a.router.Activate()

	cur, _ := a.router.Current()
	return a.router.PushPath(cur.Path)
}

// Navigate runs a guarded navigation to the named route
func (a *App) Navigate(name string) (router.Navigation, error) {
	if err := a.ready(); err != nil {
		return router.Navigation{}, err
	}
	return a.router.Push(name)
}

// NavigatePath runs a guarded navigation to path
func (a *App) NavigatePath(path string) (router.Navigation, error) {
	if err := a.ready(); err != nil {
		return router.Navigation{}, err
	}
	return a.router.PushPath(path)
}

// Logout ends the session and re-evaluates the current route
func (a *App) Logout(ctx context.Context) (router.Navigation, error) {
	a.store.Logout(ctx)
	if err := a.ready(); err != nil {
		return router.Navigation{}, err
	}

	cur, ok := a.router.Current()
	if !ok {
		return a.router.Push(router.RouteLogin)
	}
	return a.router.PushPath(cur.Path)
}

// Location returns the current path, empty before Start
func (a *App) Location() string {
	cur, ok := a.router.Current()
	if !ok {
		return ""
	}
	return cur.Path
}

// ForcedRedirects counts full navigations to the login page
func (a *App) ForcedRedirects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forcedRedirects
}

// LastUnauthorizedStatus is the most recent intercepted status, 0 if none
func (a *App) LastUnauthorizedStatus() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUnauthorized
}

// Store returns the session store
func (a *App) Store() *session.Store { return a.store }

// Router returns the router
func (a *App) Router() *router.Router { return a.router }

// Gateway returns the API gateway
func (a *App) Gateway() *gateway.Gateway { return a.gw }

func (a *App) ready() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return ErrNotStarted
	}
	return nil
}

// handleUnauthorized sends the app to the login page unless it is already there
func (a *App) handleUnauthorized(_ context.Context, resp *gateway.Response) {
	a.mu.Lock()
	a.lastUnauthorized = resp.StatusCode
	a.mu.Unlock()

	if a.Location() == a.loginPath {
		a.logger.Debug().Int("status", resp.StatusCode).Msg("Unauthorized on login page, staying")
		return
	}

	if _, err := a.router.ForceLocation(a.loginPath); err != nil {
		a.logger.Error().Err(err).Str("path", a.loginPath).Msg("Cannot redirect to login")
		return
	}

	a.mu.Lock()
	a.forcedRedirects++
	a.mu.Unlock()

	a.logger.Info().Int("status", resp.StatusCode).Str("path", a.loginPath).Msg("Redirected to login")
}
