package auth

import (
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		req  Requirement
		want Decision
	}{
		{
			name: "anonymous redirects to login",
			snap: Snapshot{},
			req:  RequireAny(RoleITOps),
			want: DecisionRedirectLogin,
		},
		{
			name: "anonymous redirects even for open requirement",
			snap: Snapshot{},
			req:  RequireAuthenticated(),
			want: DecisionRedirectLogin,
		},
		{
			name: "matching role authorizes",
			snap: Snapshot{Authenticated: true, Username: "bob", Roles: NewRoleSet(RoleITOps)},
			req:  RequireAny(RoleITOps),
			want: DecisionAuthorized,
		},
		{
			name: "any one of several required roles passes",
			snap: Snapshot{Authenticated: true, Username: "bob", Roles: NewRoleSet(RoleDataAnalyst)},
			req:  RequireAny(RoleCyberSecEng, RoleDataAnalyst),
			want: DecisionAuthorized,
		},
		{
			name: "missing role denies",
			snap: Snapshot{Authenticated: true, Username: "bob", Roles: NewRoleSet(RoleDataAnalyst)},
			req:  RequireAny(RoleITOps),
			want: DecisionDenied,
		},
		{
			name: "no roles at all denies",
			snap: Snapshot{Authenticated: true, Username: "fresh", Roles: NewRoleSet()},
			req:  RequireAny(RoleITOps),
			want: DecisionDenied,
		},
		{
			name: "admin passes any requirement",
			snap: Snapshot{Authenticated: true, Username: "root", Roles: NewRoleSet(RoleAdmin)},
			req:  RequireAny(RoleCyberSecEng),
			want: DecisionAuthorized,
		},
		{
			name: "empty requirement admits any authenticated user",
			snap: Snapshot{Authenticated: true, Username: "fresh", Roles: NewRoleSet()},
			req:  RequireAuthenticated(),
			want: DecisionAuthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.snap, tt.req); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck_ReevaluatedAfterStateChange(t *testing.T) {
	sc := newSessionContext(newSessionID())
	sc.establish("bob", NewRoleSet(RoleITOps))
	req := RequireAny(RoleITOps)

	if got := Check(sc.Snapshot(), req); got != DecisionAuthorized {
		t.Fatalf("Check() while logged in = %v, want authorized", got)
	}

	// Decisions are never cached: after a logout the next check redirects
	sc.Clear()
	if got := Check(sc.Snapshot(), req); got != DecisionRedirectLogin {
		t.Errorf("Check() after logout = %v, want redirect to login", got)
	}
}

func TestDecision_String(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{DecisionRedirectLogin, "redirect_login"},
		{DecisionDenied, "denied"},
		{DecisionAuthorized, "authorized"},
		{Decision(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}
