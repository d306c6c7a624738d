package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestUsers_List_AdminOnly(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")
	bobToken := login(t, h, "bob", "pw1")
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodGet, "/api/v1/users/", bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin list status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/users/", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	// Password hashes never appear in responses
	if got := rec.Body.String(); containsAny(got, "password_hash", "$argon2id$") {
		t.Error("list response leaks password material")
	}
}

func TestUsers_Create_WithRoles(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/", adminToken,
		map[string]any{"username": "sec", "password": "pw1", "roles": []string{"cybersec_eng"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	roles, _ := body["roles"].([]any)
	if len(roles) != 1 || roles[0] != "cybersec_eng" {
		t.Errorf("roles = %v, want [cybersec_eng]", roles)
	}

	// The created account can log in immediately with its roles
	token := login(t, h, "sec", "pw1")
	if rec := doRequest(t, h, http.MethodGet, "/api/v1/incidents", token, nil); rec.Code != http.StatusOK {
		t.Errorf("incidents status = %d, want 200", rec.Code)
	}
}

func TestUsers_Create_UnknownRoleRejected(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/", adminToken,
		map[string]any{"username": "bob", "password": "pw1", "roles": []string{"wizard"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUsers_Create_Duplicate_Conflict(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/", adminToken,
		map[string]any{"username": "admin", "password": "pw1", "roles": []string{}})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUsers_UpdateRoles_NonAdminForbidden(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")
	register(t, h, "eve", "pw1")
	eveToken := login(t, h, "eve", "pw1")

	rec := doRequest(t, h, http.MethodPut, "/api/v1/users/bob/roles", eveToken,
		map[string]any{"roles": []string{"admin"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// Target unchanged: bob still has no roles after logging in
	bobToken := login(t, h, "bob", "pw1")
	rec = doRequest(t, h, http.MethodGet, "/api/v1/auth/me", bobToken, nil)
	if roles, _ := decodeBody(t, rec)["roles"].([]any); len(roles) != 0 {
		t.Errorf("roles = %v, want none", roles)
	}
}

func TestUsers_UpdateRoles_UnknownTarget(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodPut, "/api/v1/users/ghost/roles", adminToken,
		map[string]any{"roles": []string{"it_ops"}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUsers_ChangePassword(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	register(t, h, "bob", "old-password")

	rec := doRequest(t, h, http.MethodPut, "/api/v1/users/bob/password", adminToken,
		map[string]any{"password": "new-password"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	login(t, h, "bob", "new-password")
	rec = doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "bob", "password": "old-password"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password login status = %d, want 401", rec.Code)
	}
}

func TestUsers_Delete(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	register(t, h, "bob", "pw1")

	rec := doRequest(t, h, http.MethodDelete, "/api/v1/users/bob/", adminToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "bob", "password": "pw1"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted user login status = %d, want 401", rec.Code)
	}
}

func TestUsers_DeleteBootstrapAdmin_Forbidden(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodDelete, "/api/v1/users/admin/", adminToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
