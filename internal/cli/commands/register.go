package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(env *Env) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(env, name, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runRegister(env *Env, name, email, password string) error {
	a, err := env.newApp()
	if err != nil {
		return err
	}

	ctx, cancel := env.context()
	defer cancel()

	if err := a.Store().Register(ctx, name, email, password); err != nil {
		return err
	}

	fmt.Fprintf(env.out(), "✓ Account created for %s\n", email)
	fmt.Fprintln(env.out(), "\nLog in with: sessionguard login --email", email)
	return nil
}
