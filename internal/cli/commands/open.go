package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessionguard/sessionguard/internal/cli/routeselect"
	"github.com/sessionguard/sessionguard/internal/router"
)

// NewOpenCmd creates the open command
func NewOpenCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [route-or-path]",
		Short: "Open a route and show where the guard lets you land",
		Long: `Open a route the way the application would on a fresh page load.

The session is refreshed first, then the navigation guard decides whether the
route is allowed or where to redirect.

Examples:
  $ sessionguard open            # Interactive selection
  $ sessionguard open admin      # By route name
  $ sessionguard open /register  # By path`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			return runOpen(env, target)
		},
	}

	return cmd
}

func runOpen(env *Env, target string) error {
	a, err := env.newApp()
	if err != nil {
		return err
	}

	requested, err := routeselect.ResolveRoute(a.Router().Table(), target, env.Interactive)
	if err != nil {
		return err
	}

	ctx, cancel := env.context()
	defer cancel()

	nav, err := a.Start(ctx, requested.Path)
	if err != nil {
		return err
	}

	printNavigation(env, requested, nav, a.ForcedRedirects() > 0, a.LastUnauthorizedStatus())
	return nil
}

func printNavigation(env *Env, requested router.Route, nav router.Navigation, forced bool, status int) {
	w := env.out()
	switch {
	case forced:
		fmt.Fprintf(w, "%s → %s (session rejected with status %d)\n", requested.Path, nav.To.Path, status)
	case nav.Blocked:
		fmt.Fprintf(w, "%s blocked, staying on %s\n", requested.Path, nav.To.Path)
	case nav.Redirected:
		fmt.Fprintf(w, "%s → %s (redirected by guard)\n", requested.Path, nav.To.Path)
	default:
		fmt.Fprintf(w, "%s ✓\n", nav.To.Path)
	}
}
