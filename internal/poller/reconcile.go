package poller

import (
	"fmt"
	"strings"
	"time"

	"github.com/woozymasta/vsrelay/internal/board"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/models"
)

// Reconcile corrects an inconsistent upstream document.
// A non-empty player list wins over the reported count and implies the
// server is online; a positive count alone also implies online.
func Reconcile(up models.UpstreamStatus, defaultMaxPlayers int) models.UpstreamStatus {
	if up.Players == nil {
		up.Players = []string{}
	}
	if up.PlayerCount < 0 {
		up.PlayerCount = 0
	}
	if n := len(up.Players); n > 0 && up.PlayerCount != n {
		up.PlayerCount = n
	}
	if len(up.Players) > 0 || up.PlayerCount > 0 {
		up.Online = true
	}
	if up.MaxPlayers <= 0 {
		up.MaxPlayers = defaultMaxPlayers
	}
	if up.PrettyDate == "" {
		up.PrettyDate = up.Time
	}
	if up.TPS < 0 {
		up.TPS = 0
	}

	return up
}

// Merge writes reconciled upstream fields into the persisted server status.
func Merge(srv *models.ServerStatus, up models.UpstreamStatus, inactiveStorm string, now time.Time) {
	srv.Online = up.Online
	srv.PlayerCount = up.PlayerCount
	srv.Players = up.Players
	srv.MaxPlayers = up.MaxPlayers
	srv.PrettyDate = up.PrettyDate
	srv.TemporalStorm = up.TemporalStorm
	if srv.TemporalStorm == "" {
		srv.TemporalStorm = inactiveStorm
	}
	srv.TPS = up.TPS
	srv.Uptime = up.Uptime
	srv.Version = up.Version
	srv.LastChecked = models.At(now)
}

// PresenceFor derives the bot presence from a status record.
func PresenceFor(rec models.StatusRecord, serverName, inactiveStorm string) chat.Presence {
	if rec.Maintenance.Active {
		reason := strings.TrimSpace(rec.Maintenance.Reason)
		if reason == "" {
			reason = "Тех. обслуживание"
		}
		return chat.Presence{Status: chat.StatusDND, Text: serverName + ": " + reason}
	}

	srv := rec.Server
	if !srv.Online {
		return chat.Presence{Status: chat.StatusIdle, Text: serverName + ": Оффлайн"}
	}

	text := fmt.Sprintf("%s: %d/%d игроков", serverName, srv.PlayerCount, srv.MaxPlayers)
	if board.StormActive(srv.TemporalStorm, inactiveStorm) {
		text += " | Шторм активен!"
	}

	return chat.Presence{Status: chat.StatusOnline, Text: text}
}
