package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(env)
		},
	}
}

func runWhoami(env *Env) error {
	a, err := env.newApp()
	if err != nil {
		return err
	}

	ctx, cancel := env.context()
	defer cancel()

	if !a.Store().FetchUser(ctx) {
		fmt.Fprintln(env.out(), "Not logged in.")
		fmt.Fprintln(env.out(), "\nLog in with: sessionguard login --email <email>")
		return nil
	}

	// The server may have refreshed the cookie
	if err := env.persist(a.Gateway()); err != nil {
		env.Logger.Warn().Err(err).Msg("Failed to update stored session")
	}

	fmt.Fprintf(env.out(), "Logged in to %s\n", env.Config.Client.APIURL)
	printUser(env.out(), a.Store().User())
	return nil
}
