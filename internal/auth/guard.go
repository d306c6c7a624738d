package auth

// Requirement declares the role set sufficient to pass a protected route.
// Membership is a logical OR: holding any one of the roles passes, and
// admin always passes. An empty requirement admits any authenticated user.
// Requirements are static per route and never persisted.
type Requirement struct {
	Roles RoleSet
}

// RequireAny builds a requirement satisfied by any of the given roles.
func RequireAny(roles ...Role) Requirement {
	return Requirement{Roles: NewRoleSet(roles...)}
}

// RequireAuthenticated is the requirement satisfied by any logged-in user.
func RequireAuthenticated() Requirement {
	return Requirement{Roles: NewRoleSet()}
}

// Decision is the terminal outcome of a guard check. No protected content
// is produced for anything but DecisionAuthorized.
type Decision int

const (
	// DecisionRedirectLogin means no authenticated session exists; the
	// client must be sent to the login page.
	DecisionRedirectLogin Decision = iota

	// DecisionDenied means the session is authenticated but holds none of
	// the required roles. The denial carries no detail about which role
	// was missing.
	DecisionDenied

	// DecisionAuthorized means the route may render.
	DecisionAuthorized
)

// String returns a short label for logging.
func (d Decision) String() string {
	switch d {
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionDenied:
		return "denied"
	case DecisionAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Check evaluates a requirement against a session snapshot. It is pure,
// never errors, and is evaluated fresh on every page entry; decisions are
// not cached across navigations, since an admin may revoke roles while a
// user is still logged in.
func Check(snap Snapshot, req Requirement) Decision {
	if !snap.Authenticated {
		return DecisionRedirectLogin
	}
	if snap.Roles.IsAdmin() {
		return DecisionAuthorized
	}
	if len(req.Roles) == 0 {
		return DecisionAuthorized
	}
	if snap.Roles.Intersects(req.Roles) {
		return DecisionAuthorized
	}
	return DecisionDenied
}
