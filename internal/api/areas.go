package api

import (
	"net/http"
)

// The operational areas are thin entry points: each one only proves the
// caller passed its role guard and returns the area descriptor the frontend
// renders. Area content itself lives in the dashboard frontends.

// handleIncidents is the security incident response area (cybersec_eng).
func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	s.writeArea(w, r, "incidents", "Security Incident Response")
}

// handleDatasets is the data analysis area (data_analyst).
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	s.writeArea(w, r, "datasets", "Data Analysis Workbench")
}

// handleTickets is the IT ticketing area (it_ops).
func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	s.writeArea(w, r, "tickets", "IT Operations Ticketing")
}

// handleAssistant is the chat assistant area, open to every role. It reports
// which provider is active and whether a usable key is in reach, without
// ever echoing the key.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFrom(r.Context())
	sc, _ := sessionFrom(r.Context())

	provider := s.assistant.DefaultProvider
	keyAvailable := false
	keySource := ""
	if p, ok := s.assistant.Provider(provider); ok {
		var key string
		key, keySource = s.resolveProviderKey(sc, p.ID, p.KeyEnv)
		keyAvailable = key != ""
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"area":          "assistant",
		"title":         "Chat Assistant",
		"username":      snap.Username,
		"provider":      provider,
		"key_available": keyAvailable,
		"key_source":    keySource,
	})
}

// writeArea writes the common area descriptor payload.
func (s *Server) writeArea(w http.ResponseWriter, r *http.Request, area, title string) {
	snap := snapshotFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"area":     area,
		"title":    title,
		"username": snap.Username,
	})
}
