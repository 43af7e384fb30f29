package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sessionguard/sessionguard/internal/router"
)

// NewRoutesCmd creates the routes command
func NewRoutesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List routes and their access policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(env)
		},
	}
}

func runRoutes(env *Env) error {
	table, err := router.ResolveTable(env.Config.Client.RoutesFile)
	if err != nil {
		return fmt.Errorf("failed to load route table: %w", err)
	}

	w := tabwriter.NewWriter(env.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tACCESS")
	fmt.Fprintln(w, "────\t────\t──────")

	for _, r := range table.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Path, r.Policy())
	}

	return w.Flush()
}
