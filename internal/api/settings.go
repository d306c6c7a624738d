package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck-core/internal/auth"
)

// assistantSecretPrefix namespaces session-only API key overrides inside the
// session secret map.
const assistantSecretPrefix = "assistant_key:"

// providerStatus is the public view of one assistant provider. Only presence
// and source of the key are reported; key material never appears in a
// response.
type providerStatus struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Models        []string `json:"models"`
	KeyConfigured bool     `json:"key_configured"`
	KeySource     string   `json:"key_source,omitempty"` // "session" or "env"
}

// setProviderKeyRequest is the request body for PUT /settings/assistant/{provider}/key.
type setProviderKeyRequest struct {
	APIKey string `json:"api_key"`
}

// resolveProviderKey returns the effective API key for a provider: a
// session-only override wins over the process environment. The key stays in
// memory for the session lifetime and is never persisted.
func (s *Server) resolveProviderKey(sc *auth.SessionContext, providerID, keyEnv string) (key, source string) {
	if sc != nil {
		if v, ok := sc.Secret(assistantSecretPrefix + providerID); ok {
			return v, "session"
		}
	}
	if keyEnv != "" {
		if v := os.Getenv(keyEnv); v != "" {
			return v, "env"
		}
	}
	return "", ""
}

// handleGetSettings reports the assistant provider catalogue with key status
// for the caller's session.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	sc, _ := sessionFrom(r.Context())

	providers := make([]providerStatus, len(s.assistant.Providers))
	for i, p := range s.assistant.Providers {
		key, source := s.resolveProviderKey(sc, p.ID, p.KeyEnv)
		providers[i] = providerStatus{
			ID:            p.ID,
			Label:         p.Label,
			Models:        p.Models,
			KeyConfigured: key != "",
			KeySource:     source,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"default_provider": s.assistant.DefaultProvider,
		"providers":        providers,
	})
}

// handleSetProviderKey stores a session-only API key override. The value
// lives in the session context and vanishes on logout or expiry.
func (s *Server) handleSetProviderKey(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")
	if _, ok := s.assistant.Provider(providerID); !ok {
		writeNotFound(w, "unknown provider")
		return
	}

	var req setProviderKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.APIKey == "" {
		writeBadRequest(w, "api_key is required")
		return
	}

	sc, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	sc.SetSecret(assistantSecretPrefix+providerID, req.APIKey)
	s.logger.Info("session key override set", "provider", providerID)
	w.WriteHeader(http.StatusNoContent)
}

// handleClearProviderKey removes a session-only API key override, falling
// back to the environment-configured key if one exists.
func (s *Server) handleClearProviderKey(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")
	if _, ok := s.assistant.Provider(providerID); !ok {
		writeNotFound(w, "unknown provider")
		return
	}

	if sc, ok := sessionFrom(r.Context()); ok {
		sc.ClearSecret(assistantSecretPrefix + providerID)
	}
	w.WriteHeader(http.StatusNoContent)
}
