package api

import (
	"net/http"
	"testing"
)

func TestHealth_NoAuthRequired(t *testing.T) {
	_, h := testServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestRegisterAndLogin_Flow(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "hunter2")
	token := login(t, h, "bob", "hunter2")

	rec := doRequest(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["authenticated"] != true {
		t.Error("me should report authenticated")
	}
	if body["username"] != "bob" {
		t.Errorf("username = %v, want bob", body["username"])
	}
	roles, _ := body["roles"].([]any)
	if len(roles) != 0 {
		t.Errorf("fresh user roles = %v, want none", roles)
	}
}

func TestRegister_Duplicate_Conflict(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": "bob", "password": "pw2"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	_, h := testServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"empty username", map[string]string{"username": "", "password": "pw"}},
		{"empty password", map[string]string{"username": "bob", "password": ""}},
		{"whitespace username", map[string]string{"username": "   ", "password": "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLogin_InvalidCredentials_SameResponse(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")

	ghost := doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "ghost", "password": "whatever"})
	wrong := doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "bob", "password": "not-pw1"})

	if ghost.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401, 401", ghost.Code, wrong.Code)
	}
	// Unknown user and wrong password must be indistinguishable on the wire
	if ghost.Body.String() != wrong.Body.String() {
		t.Errorf("response bodies differ:\n%s\n%s", ghost.Body.String(), wrong.Body.String())
	}
}

func TestLogin_BootstrapAdmin(t *testing.T) {
	_, h := testServer(t)

	token := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	body := decodeBody(t, rec)
	roles, _ := body["roles"].([]any)
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("bootstrap roles = %v, want [admin]", roles)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")
	token := login(t, h, "bob", "pw1")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rec.Code)
	}

	// The token now references a dead session; guarded routes redirect
	rec = doRequest(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", rec.Code)
	}

	// Logout is idempotent
	rec = doRequest(t, h, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("second logout status = %d, want 204", rec.Code)
	}
}

func TestMe_Anonymous_RedirectsToLogin(t *testing.T) {
	_, h := testServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["login_url"] != "/api/v1/auth/login" {
		t.Errorf("login_url = %v, want /api/v1/auth/login", body["login_url"])
	}
}

func TestMe_GarbageToken_TreatedAsAnonymous(t *testing.T) {
	_, h := testServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/auth/me", "not.a.token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
