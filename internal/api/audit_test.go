package api

import (
	"net/http"
	"testing"
)

func TestAudit_AdminOnly(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")
	bobToken := login(t, h, "bob", "pw1")

	rec := doRequest(t, h, http.MethodGet, "/api/v1/audit", bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin audit status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/audit", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous audit status = %d, want 401", rec.Code)
	}
}

func TestAudit_RecordsAuthActivity(t *testing.T) {
	_, h := testServer(t)

	register(t, h, "bob", "pw1")
	login(t, h, "bob", "pw1")

	// Failed login lands in the trail too
	doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "bob", "password": "wrong"})

	adminToken := login(t, h, "admin", "admin")
	rec := doRequest(t, h, http.MethodGet, "/api/v1/audit?username=bob", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	events, _ := body["events"].([]any)
	actions := make(map[string]bool)
	for _, raw := range events {
		e, _ := raw.(map[string]any)
		actions[e["action"].(string)] = true
	}

	for _, want := range []string{"register", "login", "login_failed"} {
		if !actions[want] {
			t.Errorf("audit trail missing %q, got %v", want, actions)
		}
	}
}

func TestAudit_RecordsAdminActions(t *testing.T) {
	_, h := testServer(t)
	adminToken := login(t, h, "admin", "admin")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/", adminToken,
		map[string]any{"username": "ops", "password": "pw1", "roles": []string{"it_ops"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d", rec.Code)
	}
	doRequest(t, h, http.MethodPut, "/api/v1/users/ops/roles", adminToken,
		map[string]any{"roles": []string{"it_ops", "data_analyst"}})
	doRequest(t, h, http.MethodDelete, "/api/v1/users/ops/", adminToken, nil)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/audit?username=ops", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	events, _ := body["events"].([]any)
	var actions []string
	for _, raw := range events {
		e, _ := raw.(map[string]any)
		actions = append(actions, e["action"].(string))
		if e["actor"] != "admin" {
			t.Errorf("event %v actor = %v, want admin", e["action"], e["actor"])
		}
	}

	// Most recent first
	want := []string{"user_deleted", "roles_updated", "user_created"}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions[%d] = %q, want %q", i, actions[i], want[i])
		}
	}

	// Password material never reaches the trail
	if containsAny(rec.Body.String(), "pw1", "$argon2id$") {
		t.Error("audit response leaks credentials")
	}
}
