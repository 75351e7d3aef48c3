package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/notify"
)

// handleNotification decodes a game server callback and waits a bounded time
// for the chat loop to dispatch it. A timed out dispatch keeps running.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	ip := GetRealIP(r, s.trustProxy)

	// Max body limit size
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Str("ip", ip).Int64("limit", tooLarge.Limit).Msg("Notification body too large")
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		log.Debug().Err(err).Str("ip", ip).Msg("Failed to read notification body")
		respondError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("Invalid notification JSON")
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(n.Type) == "" {
		log.Warn().Str("ip", ip).Msg("Notification without type field")
		respondError(w, http.StatusBadRequest, "Missing 'type' field")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.dispatchTimeout)
	defer cancel()

	err = s.scheduler.Do(ctx, func() error {
		return s.dispatcher.Process(n)
	})

	switch {
	case err == nil:
		log.Debug().Str("ip", ip).Str("type", n.Type).Msg("Notification processed")
		respondOK(w)

	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Str("ip", ip).Str("type", n.Type).Dur("timeout", s.dispatchTimeout).Msg("Notification dispatch timed out")
		respondError(w, http.StatusInternalServerError, "Notification dispatch timed out")

	case errors.Is(err, context.Canceled):
		log.Debug().Str("ip", ip).Str("type", n.Type).Msg("Client went away before dispatch finished")

	case errors.Is(err, notify.ErrCooldown), errors.Is(err, notify.ErrMaintenance):
		log.Debug().Err(err).Str("ip", ip).Str("type", n.Type).Msg("Notification dropped")
		respondError(w, http.StatusInternalServerError, err.Error())

	default:
		log.Error().Err(err).Str("ip", ip).Str("type", n.Type).Msg("Notification dispatch failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
