package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/sessionguard/sessionguard/internal/app"
	"github.com/sessionguard/sessionguard/internal/cli/credentials"
	"github.com/sessionguard/sessionguard/internal/config"
	"github.com/sessionguard/sessionguard/internal/gateway"
	"github.com/sessionguard/sessionguard/internal/router"
	"github.com/sessionguard/sessionguard/internal/session"
)

// Env carries the dependencies every command needs. The root command fills
// it in before any subcommand runs; tests build one directly.
type Env struct {
	Config      *config.Config
	Credentials credentials.Store
	Logger      zerolog.Logger
	Out         io.Writer
	Interactive bool
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

// context applies the configured command timeout, if any
func (e *Env) context() (context.Context, context.CancelFunc) {
	if e.Config.Client.CommandTimeout > 0 {
		return context.WithTimeout(context.Background(), e.Config.Client.CommandTimeout)
	}
	return context.WithCancel(context.Background())
}

// newApp builds a client seeded with any stored session cookies
func (e *Env) newApp() (*app.App, error) {
	table, err := router.ResolveTable(e.Config.Client.RoutesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load route table: %w", err)
	}

	gw, err := gateway.New(e.Config.Client.APIURL,
		gateway.WithLogger(e.Logger.With().Str("component", "gateway").Logger()),
	)
	if err != nil {
		return nil, err
	}

	cookies, err := e.Credentials.Load(e.Config.Client.APIURL)
	switch {
	case errors.Is(err, credentials.ErrNotFound):
	case err != nil:
		e.Logger.Warn().Err(err).Msg("Ignoring unreadable stored session")
	default:
		gw.SetCookies(cookies)
	}

	store := session.New(gw, e.Logger.With().Str("component", "session").Logger())
	rt := router.New(table, store, router.WithLogger(e.Logger.With().Str("component", "router").Logger()))

	return app.New(store, gw, rt, e.Config.Client.LoginPath, e.Logger), nil
}

// persist saves the gateway's current cookies
func (e *Env) persist(gw *gateway.Gateway) error {
	cookies := gw.Cookies()
	if len(cookies) == 0 {
		return e.Credentials.Delete(e.Config.Client.APIURL)
	}
	return e.Credentials.Save(e.Config.Client.APIURL, cookies)
}

func printUser(w io.Writer, u *session.User) {
	fmt.Fprintf(w, "  User: %s (%s)\n", u.DisplayName, u.Email)
	if u.IsAdmin() {
		fmt.Fprintln(w, "  Role: Admin")
	} else if u.Role != "" {
		fmt.Fprintf(w, "  Role: %s\n", u.Role)
	}
}
