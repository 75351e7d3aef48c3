// Package fake provides utilities for generating random journal data for testing and development purposes.
package fake

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/storage"
)

// GenerateJournal populates the journal with a specified number of randomized notification records.
// It simulates storm cycles and season changes with a realistic mix of outcomes.
func GenerateJournal(store *storage.Repository, count int) {
	kinds := []string{string(models.KindStorm), string(models.KindStorm), string(models.KindSeason), string(models.KindServerStatus)}
	seasons := []models.Season{models.Spring, models.Summer, models.Autumn, models.Winter}
	stormTitles := []string{"Штормовое предупреждение", "Шторм закончился"}

	inserted := 0
	for i := 0; i < count; i++ {
		// Random date-time in 30 days range
		daysAgo := rand.Intn(30)
		created := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		entry := models.JournalEntry{
			CreatedAt: created,
			Kind:      kinds[rand.Intn(len(kinds))],
		}

		// Most events are delivered, some hit cooldown or maintenance
		roll := rand.Float32()
		switch {
		case entry.Kind == string(models.KindServerStatus):
			entry.Outcome = models.OutcomeAcknowledged
		case roll < 0.75:
			entry.Outcome = models.OutcomeDelivered
		case roll < 0.90:
			entry.Outcome = models.OutcomeCooldown
		case roll < 0.97:
			entry.Outcome = models.OutcomeMaintenance
		default:
			entry.Outcome = models.OutcomeFailed
			entry.Detail = "HTTP 403 Forbidden"
		}

		if entry.Outcome == models.OutcomeDelivered {
			switch entry.Kind {
			case string(models.KindStorm):
				entry.Title = stormTitles[rand.Intn(len(stormTitles))]
			case string(models.KindSeason):
				entry.Title = "Смена сезона"
				entry.Detail = seasons[rand.Intn(len(seasons))].Localized()
			}
		}

		if err := store.Record(entry); err != nil {
			log.Error().Err(err).Msg("Failed to insert fake journal entry")
			continue
		}
		inserted++
	}

	log.Info().Int("count", inserted).Msg("Fake journal data generated")
}
