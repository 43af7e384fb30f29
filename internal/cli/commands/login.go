package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(env, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SESSIONGUARD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SESSIONGUARD_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(env *Env, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("SESSIONGUARD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SESSIONGUARD_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SESSIONGUARD_EMAIL env var)")
	}

	if password == "" {
		if !env.Interactive || !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or SESSIONGUARD_PASSWORD env var)")
		}
		fmt.Fprint(env.out(), "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(env.out())
	}

	a, err := env.newApp()
	if err != nil {
		return err
	}

	ctx, cancel := env.context()
	defer cancel()

	fmt.Fprintf(env.out(), "Logging in to %s...\n", env.Config.Client.APIURL)

	if err := a.Store().Login(ctx, email, password); err != nil {
		return err
	}

	if err := env.persist(a.Gateway()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintln(env.out(), "✓ Login successful!")
	printUser(env.out(), a.Store().User())
	return nil
}
