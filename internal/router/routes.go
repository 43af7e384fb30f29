package router

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	RouteHome     = "home"
	RouteLogin    = "login"
	RouteAdmin    = "admin"
	RouteRegister = "register"

	// TableFileName is looked up by FindTableFile
	TableFileName = "routes.yaml"
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrInvalidTable  = errors.New("invalid route table")
)

// Meta is per-route access metadata
type Meta struct {
	RequiresAdmin bool `yaml:"requiresAdmin" json:"requiresAdmin"`
	Public        bool `yaml:"public" json:"public"`
}

// Route describes one navigable location
type Route struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
	Meta Meta   `yaml:"meta" json:"meta"`
}

// publicNames are public regardless of metadata
var publicNames = map[string]struct{}{
	RouteLogin:    {},
	RouteRegister: {},
}

// IsPublic reports whether the route can be visited without a session
func (r Route) IsPublic() bool {
	if _, ok := publicNames[r.Name]; ok {
		return true
	}
	return r.Meta.Public
}

// Policy is a human readable access policy
func (r Route) Policy() string {
	switch {
	case r.IsPublic():
		return "public"
	case r.Meta.RequiresAdmin:
		return "admin"
	default:
		return "protected"
	}
}

// Table is an ordered set of routes indexed by name and path
type Table struct {
	routes []Route
	byName map[string]int
	byPath map[string]int
}

// NewTable validates routes and builds the indexes
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byName: make(map[string]int, len(routes)),
		byPath: make(map[string]int, len(routes)),
	}

	for _, r := range routes {
		if r.Name == "" || r.Path == "" {
			return nil, fmt.Errorf("%w: route needs name and path: %+v", ErrInvalidTable, r)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate route name %q", ErrInvalidTable, r.Name)
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("%w: duplicate route path %q", ErrInvalidTable, r.Path)
		}
		t.byName[r.Name] = len(t.routes)
		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	// Guard redirects target these names, so they must exist
	for _, required := range []string{RouteHome, RouteLogin} {
		if _, ok := t.byName[required]; !ok {
			return nil, fmt.Errorf("%w: missing required route %q", ErrInvalidTable, required)
		}
	}

	return t, nil
}

// DefaultTable is the built-in route table
func DefaultTable() *Table {
	t, err := NewTable([]Route{
		{Path: "/", Name: RouteHome},
		{Path: "/login", Name: RouteLogin},
		{Path: "/admin", Name: RouteAdmin, Meta: Meta{RequiresAdmin: true}},
		{Path: "/register", Name: RouteRegister},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns the routes in declaration order
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// ByName looks a route up by name
func (t *Table) ByName(name string) (Route, error) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, fmt.Errorf("%w: name %q", ErrRouteNotFound, name)
	}
	return t.routes[i], nil
}

// ByPath looks a route up by path
func (t *Table) ByPath(path string) (Route, error) {
	i, ok := t.byPath[path]
	if !ok {
		return Route{}, fmt.Errorf("%w: path %q", ErrRouteNotFound, path)
	}
	return t.routes[i], nil
}

type tableFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadTable reads a YAML route table
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}

	return NewTable(f.Routes)
}

// FindTableFile searches for routes.yaml in the current directory and its parents
func FindTableFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		candidate := filepath.Join(dir, TableFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", TableFileName, currentDir)
}

// ResolveTable picks the table to use: an explicit file, then a discovered
// routes.yaml, then the built-in table.
func ResolveTable(explicit string) (*Table, error) {
	if explicit != "" {
		return LoadTable(explicit)
	}
	if found, err := FindTableFile(); err == nil {
		return LoadTable(found)
	}
	return DefaultTable(), nil
}
