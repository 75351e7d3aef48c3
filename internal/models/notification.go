package models

import "strings"

// Kind identifies a notification event type.
type Kind string

// Known notification kinds. The values double as rate-limit keys.
const (
	KindStorm        Kind = "storm"
	KindSeason       Kind = "season"
	KindServerStatus Kind = "serverStatus"
	KindBatch        Kind = "batch"
	KindUnknown      Kind = ""
)

// wire type names sent by the game server mod and older bot versions
var kindAliases = map[string]Kind{
	"storm_notification":  KindStorm,
	"storm":               KindStorm,
	"season_notification": KindSeason,
	"season":              KindSeason,
	"server_status":       KindServerStatus,
	"serverstatus":        KindServerStatus,
	"notification_batch":  KindBatch,
	"batch":               KindBatch,
}

// ParseKind maps a wire type name to a Kind. Unrecognized names yield KindUnknown.
func ParseKind(s string) Kind {
	return kindAliases[strings.ToLower(strings.TrimSpace(s))]
}

// Notification is a decoded inbound notification request body.
//
// Payload fields may arrive nested under "data" or flat next to "type";
// a batch carries its sub-events in "notifications".
type Notification struct {
	Data          *Payload       `json:"data,omitempty"`
	Type          string         `json:"type"`
	Notifications []Notification `json:"notifications,omitempty"`
	Season        string         `json:"season,omitempty"`
	Time          string         `json:"time,omitempty"`
	IsActive      bool           `json:"is_active,omitempty"`
	IsWarning     bool           `json:"is_warning,omitempty"`
}

// Payload holds kind specific fields.
type Payload struct {
	Type      string `json:"type,omitempty"`
	Season    string `json:"season,omitempty"`
	Time      string `json:"time,omitempty"`
	IsActive  bool   `json:"is_active,omitempty"`
	IsWarning bool   `json:"is_warning,omitempty"`
}

// Payload returns the nested payload, or the flat fields when "data" is absent.
func (n Notification) Payload() Payload {
	if n.Data != nil {
		return *n.Data
	}

	return Payload{
		Season:    n.Season,
		Time:      n.Time,
		IsActive:  n.IsActive,
		IsWarning: n.IsWarning,
	}
}

// Kind resolves the actual event kind: a type inside the payload wins over the top-level type.
func (n Notification) Kind() Kind {
	if n.Data != nil && n.Data.Type != "" {
		if k := ParseKind(n.Data.Type); k != KindUnknown {
			return k
		}
	}

	return ParseKind(n.Type)
}

// StormNotification builds a storm event as the game server would send it.
func StormNotification(active, warning bool, gameTime string) Notification {
	return Notification{
		Type: "storm_notification",
		Data: &Payload{IsActive: active, IsWarning: warning, Time: gameTime},
	}
}

// SeasonNotification builds a season change event as the game server would send it.
func SeasonNotification(season, gameTime string) Notification {
	return Notification{
		Type: "season_notification",
		Data: &Payload{Season: season, Time: gameTime},
	}
}
