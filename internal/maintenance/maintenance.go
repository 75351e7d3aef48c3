// Package maintenance toggles the maintenance override and runs one-shot
// housekeeping tasks selected by command-line flags.
package maintenance

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/config"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/state"
	"github.com/woozymasta/vsrelay/internal/storage"
)

var (
	// ErrAlreadyDisabled is returned when disabling maintenance that is not active.
	ErrAlreadyDisabled = errors.New("maintenance mode is already disabled")

	// ErrEmptyReason is returned when enabling maintenance without a reason.
	ErrEmptyReason = errors.New("maintenance reason is empty")
)

// Enable turns maintenance mode on with the given reason.
func Enable(store *state.Store, reason string) (models.StatusRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return store.Load(), ErrEmptyReason
	}

	rec, err := store.Update(func(r *models.StatusRecord) error {
		r.Maintenance = models.Maintenance{Active: true, Reason: reason}
		return nil
	})
	if err != nil {
		return rec, err
	}

	log.Warn().Str("reason", reason).Msg("Maintenance mode enabled")
	return rec, nil
}

// Disable turns maintenance mode off.
func Disable(store *state.Store) (models.StatusRecord, error) {
	rec, err := store.Update(func(r *models.StatusRecord) error {
		if !r.Maintenance.Active {
			return ErrAlreadyDisabled
		}
		r.Maintenance = models.Maintenance{}
		return nil
	})
	if err != nil {
		return rec, err
	}

	log.Warn().Msg("Maintenance mode disabled")
	return rec, nil
}

// Run checks if any one-shot flags are set and executes the corresponding task.
// Returns true if a task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *state.Store, journal *storage.Repository) bool {
	switch {
	case cfg.State.SetMaintenance != "":
		if _, err := Enable(store, cfg.State.SetMaintenance); err != nil {
			log.Error().Err(err).Msg("Failed to enable maintenance mode")
		}
		return true

	case cfg.State.ClearMaintenance:
		if _, err := Disable(store); err != nil {
			if errors.Is(err, ErrAlreadyDisabled) {
				log.Info().Msg("Maintenance mode is not active")
			} else {
				log.Error().Err(err).Msg("Failed to disable maintenance mode")
			}
		}
		return true

	case cfg.Storage.Prune > 0:
		cutoff := time.Now().Add(-cfg.Storage.Prune)
		log.Info().Time("cutoff", cutoff).Msg("Pruning notification journal...")

		count, err := journal.PruneOlderThan(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune journal")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}
		return true
	}

	return false
}
