package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(env)
		},
	}
}

func runLogout(env *Env) error {
	a, err := env.newApp()
	if err != nil {
		return err
	}

	ctx, cancel := env.context()
	defer cancel()

	// Server errors are logged by the store; local state is cleared regardless
	a.Store().Logout(ctx)

	if err := env.Credentials.Delete(env.Config.Client.APIURL); err != nil {
		return err
	}

	fmt.Fprintln(env.out(), "✓ Logged out")
	return nil
}
