// Package board renders the server status embed and keeps a single status
// message up to date in the status channel.
package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/models"
)

// Status embed colors.
const (
	ColorMaintenance = 0xe67e22
	ColorOnline      = 0x2ecc71
	ColorOffline     = 0xe74c3c
)

// maxFieldValue is the chat platform limit for an embed field value.
const maxFieldValue = 1024

// Embed builds the status embed for a record.
func Embed(rec models.StatusRecord, serverName, inactiveStorm string) *chat.Embed {
	e := &chat.Embed{Title: "Статус сервера: " + serverName}
	srv := rec.Server

	switch {
	case rec.Maintenance.Active:
		e.Color = ColorMaintenance
		e.AddField("Статус", "🟠 Тех. обслуживание", true)
		if rec.Maintenance.Reason != "" {
			e.AddField("Причина", rec.Maintenance.Reason, false)
		} else {
			e.AddField("Информация", "Сервер находится на техническом обслуживании. Пожалуйста, подождите.", false)
		}

	case srv.Online:
		e.Color = ColorOnline
		e.Description = "Сейчас на сервере: " + PlayersText(srv.PlayerCount)
		e.AddField("Статус", "🟢 Онлайн", true)
		e.AddField("Игроков", fmt.Sprintf("%d/%d", srv.PlayerCount, srv.MaxPlayers), true)

		if srv.TPS > 0 {
			e.AddField("TPS", strconv.FormatFloat(srv.TPS, 'f', 1, 64), true)
		}
		if srv.Uptime != "" {
			e.AddField("Время работы", srv.Uptime, true)
		}
		if srv.Version != "" {
			e.AddField("Версия", srv.Version, true)
		}

		storm := srv.TemporalStorm
		if storm == "" {
			storm = inactiveStorm
		}
		icon := "☀️"
		if StormActive(storm, inactiveStorm) {
			icon = "⚡"
		}
		e.AddField("Темпоральный шторм", icon+" "+storm, true)

		if srv.PrettyDate != "" {
			e.AddField("Дата в игре", srv.PrettyDate, true)
		}

		if len(srv.Players) > 0 {
			e.AddField(fmt.Sprintf("Игроки онлайн (%d)", len(srv.Players)), chat.Truncate(strings.Join(srv.Players, ", "), maxFieldValue), false)
		} else {
			e.AddField("Игроки онлайн", "На сервере нет игроков", false)
		}

	default:
		e.Color = ColorOffline
		e.AddField("Статус", "🔴 Оффлайн", true)
		e.AddField("Информация", "Сервер в данный момент недоступен.", false)
	}

	if !srv.LastChecked.IsZero() {
		e.Footer = "Последнее обновление: " + srv.LastChecked.Local().Format("2006-01-02 15:04:05")
	}

	return e
}

// StormActive reports whether a storm label means a storm is in progress.
func StormActive(label, inactive string) bool {
	return label != "" && !strings.EqualFold(label, inactive)
}

// PlayersText returns a player count with the matching noun form.
func PlayersText(n int) string {
	if n == 0 {
		return "нет игроков"
	}

	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return strconv.Itoa(n) + " игрок"
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return strconv.Itoa(n) + " игрока"
	default:
		return strconv.Itoa(n) + " игроков"
	}
}

// Board keeps one status message per channel and edits it in place.
// Methods must be called from the chat loop.
type Board struct {
	sink          chat.Sink
	channelID     string
	messageID     string
	serverName    string
	inactiveStorm string
}

// New creates a board. An empty channelID disables it.
func New(sink chat.Sink, channelID, serverName, inactiveStorm string) *Board {
	return &Board{
		sink:          sink,
		channelID:     channelID,
		serverName:    serverName,
		inactiveStorm: inactiveStorm,
	}
}

// Enabled reports whether a status channel is configured.
func (b *Board) Enabled() bool {
	return b != nil && b.channelID != ""
}

// Update edits the status message, posting a new one when none exists yet
// or the previous one can no longer be edited.
func (b *Board) Update(rec models.StatusRecord) error {
	if !b.Enabled() {
		return nil
	}

	e := Embed(rec, b.serverName, b.inactiveStorm)

	if b.messageID != "" {
		err := b.sink.EditEmbed(b.channelID, b.messageID, e)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("message", b.messageID).Msg("Failed to edit status message, posting a new one")
		b.messageID = ""
	}

	id, err := b.sink.SendEmbed(b.channelID, e)
	if err != nil {
		return fmt.Errorf("post status message: %w", err)
	}
	b.messageID = id

	return nil
}
