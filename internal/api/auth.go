package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/opsdeck/opsdeck-core/internal/audit"
	"github.com/opsdeck/opsdeck-core/internal/auth"
)

// credentialsRequest is the request body for register and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
}

// userResponse is the public view of an account. The password hash is never
// part of any response.
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// handleRegister creates a new account with no roles. The caller must log in
// separately; registration never establishes a session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionRegister, user.Username, nil)
	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Roles:     user.Roles.Names(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// handleLogin validates credentials, establishes a server-side session, and
// returns a token referencing it. The token carries only the session ID;
// roles and authentication state are always resolved server-side.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sc, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.recordAudit(r, audit.ActionLoginFailed, auth.NormalizeUsername(req.Username), nil)
		s.writeAuthError(w, err)
		return
	}

	s.sessions.Add(sc)

	snap := sc.Snapshot()
	ttl := s.sessionTTL()
	token, err := auth.GenerateSessionToken(sc.ID(), snap.Username, s.secCfg.JWTSecret, ttl)
	if err != nil {
		s.sessions.Destroy(sc.ID())
		s.logger.Error("failed to sign session token", "error", err)
		writeInternalError(w, "failed to establish session")
		return
	}

	s.recordAudit(r, audit.ActionLogin, snap.Username, nil)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		Username:    snap.Username,
		Roles:       snap.Roles.Names(),
	})
}

// handleLogout destroys the caller's session. Idempotent: a request without
// a live session still succeeds, matching the logout button being safe to
// press twice.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sc, ok := sessionFrom(r.Context()); ok {
		username := snapshotFrom(r.Context()).Username
		s.sessions.Destroy(sc.ID())
		s.recordAudit(r, audit.ActionLogout, username, nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the caller's authentication snapshot.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": snap.Authenticated,
		"username":      snap.Username,
		"roles":         snap.Roles.Names(),
	})
}
