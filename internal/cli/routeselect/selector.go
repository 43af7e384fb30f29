package routeselect

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/sessionguard/sessionguard/internal/router"
)

// ResolveRoute determines which route to open based on the following priority:
// 1. An argument starting with "/" is looked up as a path
// 2. Any other argument is looked up as a route name
// 3. Otherwise, prompt user to select a route interactively
func ResolveRoute(table *router.Table, nameOrPath string, interactive bool) (router.Route, error) {
	if nameOrPath != "" {
		if strings.HasPrefix(nameOrPath, "/") {
			return table.ByPath(nameOrPath)
		}
		return table.ByName(nameOrPath)
	}

	if !interactive {
		return router.Route{}, fmt.Errorf("a route name or path is required in non-interactive mode")
	}

	return PromptRouteSelection(table)
}

// PromptRouteSelection shows an interactive prompt for the user to select a route
func PromptRouteSelection(table *router.Table) (router.Route, error) {
	routes := table.Routes()
	if len(routes) == 0 {
		return router.Route{}, fmt.Errorf("route table is empty")
	}

	type routeOption struct {
		Label string
		Route router.Route
	}

	options := make([]routeOption, len(routes))
	for i, r := range routes {
		options[i] = routeOption{
			Label: fmt.Sprintf("%s (%s, %s)", r.Name, r.Path, r.Policy()),
			Route: r,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a route",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return router.Route{}, fmt.Errorf("route selection cancelled: %w", err)
	}

	return options[index].Route, nil
}
