package routeselect

import (
	"testing"

	"github.com/sessionguard/sessionguard/internal/router"
)

func TestResolveRoute(t *testing.T) {
	table := router.DefaultTable()

	r, err := ResolveRoute(table, "/admin", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Name != router.RouteAdmin {
		t.Errorf("expected admin route, got %s", r.Name)
	}

	r, err = ResolveRoute(table, "register", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Path != "/register" {
		t.Errorf("expected /register, got %s", r.Path)
	}

	if _, err := ResolveRoute(table, "/nope", false); err == nil {
		t.Error("expected error for unknown path")
	}

	if _, err := ResolveRoute(table, "", false); err == nil {
		t.Error("expected error when no route is given in non-interactive mode")
	}
}
