package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck-core/internal/audit"
	"github.com/opsdeck/opsdeck-core/internal/auth"
)

// createUserRequest is the request body for POST /users.
type createUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// updateRolesRequest is the request body for PUT /users/{username}/roles.
// The roles replace the user's current set wholesale.
type updateRolesRequest struct {
	Roles []string `json:"roles"`
}

// changePasswordRequest is the request body for PUT /users/{username}/password.
type changePasswordRequest struct {
	Password string `json:"password"`
}

// parseRoleSet converts request role names into a RoleSet, rejecting unknown
// names so a typo cannot silently grant nothing.
func parseRoleSet(names []string) (auth.RoleSet, error) {
	set := auth.NewRoleSet()
	for _, name := range names {
		r := auth.Role(name)
		if !auth.IsValidRole(r) {
			return nil, fmt.Errorf("unknown role %q", name)
		}
		set[r] = struct{}{}
	}
	return set, nil
}

// handleListUsers returns every account, ordered by creation time.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context(), snapshotFrom(r.Context()).Roles)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = userResponse{
			ID:        u.ID,
			Username:  u.Username,
			Roles:     u.Roles.Names(),
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": out,
		"count": len(out),
	})
}

// handleCreateUser creates an account with roles assigned up front.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	roles, err := parseRoleSet(req.Roles)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	user, err := s.auth.CreateUser(r.Context(), snapshotFrom(r.Context()).Roles, req.Username, req.Password, roles)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUserCreated, user.Username, map[string]any{"roles": user.Roles.Names()})
	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Roles:     user.Roles.Names(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// handleUpdateRoles replaces the target user's role set. The change takes
// effect on the target's next login; live sessions keep their login-time
// roles.
func (s *Server) handleUpdateRoles(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req updateRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	roles, err := parseRoleSet(req.Roles)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.auth.PromoteRole(r.Context(), snapshotFrom(r.Context()).Roles, username, roles); err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionRolesUpdated, username, map[string]any{"roles": roles.Names()})
	writeJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"roles":    roles.Names(),
	})
}

// handleChangePassword replaces the target user's password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.auth.ChangePassword(r.Context(), snapshotFrom(r.Context()).Roles, username, req.Password); err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionPasswordChanged, username, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteUser removes an account. The bootstrap admin is protected.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := s.auth.DeleteUser(r.Context(), snapshotFrom(r.Context()).Roles, username); err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUserDeleted, username, nil)
	w.WriteHeader(http.StatusNoContent)
}
