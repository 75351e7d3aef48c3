package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// handleIndex answers any GET with a plain-text liveness message.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Notification server is running"))
}

// handleNotFound rejects every method and path not routed elsewhere.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("ip", GetRealIP(r, s.trustProxy)).
		Msg("Request to unknown path")

	respondError(w, http.StatusNotFound, "Not found")
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondOK(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
