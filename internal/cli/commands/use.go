package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sessionguard/sessionguard/internal/cli/userconfig"
)

// NewUseCmd creates the use command
func NewUseCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "use <api-url>",
		Short: "Remember the API to talk to",
		Long: `Remember the API base URL for later commands.

The --api flag and SESSIONGUARD_API_URL still take precedence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUse(env, args[0])
		},
	}
}

func runUse(env *Env, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", raw)
	}

	apiURL := strings.TrimRight(raw, "/")
	if err := userconfig.SetAPIURL(apiURL); err != nil {
		return err
	}

	fmt.Fprintf(env.out(), "✓ Using %s\n", apiURL)
	return nil
}
