package router

// AuthState is what the guard needs to know about the session
type AuthState interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// DecisionKind enumerates guard outcomes
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
	DecisionBlock
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	case DecisionBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Decision is the argument passed to a guard's continuation
type Decision struct {
	Kind   DecisionKind
	Target string // route name, set for redirects
}

// Allow lets the navigation proceed unchanged
func Allow() Decision { return Decision{Kind: DecisionAllow} }

// RedirectTo sends the navigation to the named route instead
func RedirectTo(name string) Decision { return Decision{Kind: DecisionRedirect, Target: name} }

// Block keeps the current route
func Block() Decision { return Decision{Kind: DecisionBlock} }

// Next is the continuation a guard must call exactly once
type Next func(Decision)

// GuardFunc runs before every transition
type GuardFunc func(to, from Route, auth AuthState, next Next)

// Decide is the access policy. First match wins:
//  1. non-public target without a session -> login
//  2. admin-only target without the admin role -> home
//  3. login while already signed in -> home
//  4. allow
func Decide(to Route, auth AuthState) Decision {
	authenticated := auth.IsAuthenticated()

	if !to.IsPublic() && !authenticated {
		return RedirectTo(RouteLogin)
	}

	if to.Meta.RequiresAdmin && !auth.IsAdmin() {
		return RedirectTo(RouteHome)
	}

	if to.Name == RouteLogin && authenticated {
		return RedirectTo(RouteHome)
	}

	return Allow()
}

// Guard is the default GuardFunc wrapping Decide
func Guard(to, _ Route, auth AuthState, next Next) {
	next(Decide(to, auth))
}
