package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sessionguard/sessionguard/internal/cli/commands"
	"github.com/sessionguard/sessionguard/internal/cli/credentials"
	"github.com/sessionguard/sessionguard/internal/cli/userconfig"
	"github.com/sessionguard/sessionguard/internal/config"
	"github.com/sessionguard/sessionguard/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around env
func NewRootCmd(env *commands.Env) *cobra.Command {
	var apiURL string

	rootCmd := &cobra.Command{
		Use:   "sessionguard",
		Short: "sessionguard - session-aware API client",
		Long: `sessionguard CLI - Log in to an API, keep the session cookie in your
OS keychain, and check which routes your session can reach.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			if env.Config == nil {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				env.Config = cfg
			}
			switch {
			case apiURL != "":
				env.Config.Client.APIURL = strings.TrimRight(apiURL, "/")
			case os.Getenv("SESSIONGUARD_API_URL") == "":
				if remembered, err := userconfig.GetAPIURL(); err == nil && remembered != "" {
					env.Config.Client.APIURL = remembered
				}
			}

			logger.Init(env.Config.Logging.Level, env.Config.Logging.Format)
			env.Logger = logger.GetLogger()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides SESSIONGUARD_API_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sessionguard version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewOpenCmd(env))
	rootCmd.AddCommand(commands.NewRegisterCmd(env))
	rootCmd.AddCommand(commands.NewRoutesCmd(env))
	rootCmd.AddCommand(commands.NewUseCmd(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	env := &commands.Env{
		Credentials: credentials.Default,
		Out:         os.Stdout,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}

	if err := NewRootCmd(env).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
