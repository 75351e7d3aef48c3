// Package models defines the data structures shared by the status poller,
// the notification gateway and the persisted status record.
package models

import "time"

// StatusRecord is the persisted server status document.
// The file is read and written wholesale and is safe to hand-edit between runs.
type StatusRecord struct {
	Server      ServerStatus `json:"server"`
	Maintenance Maintenance  `json:"manual_maintenance"`
}

// ServerStatus is the last known state of the game server.
type ServerStatus struct {
	LastChecked   Timestamp `json:"last_checked"`
	TemporalStorm string    `json:"temporal_storm"`
	PrettyDate    string    `json:"pretty_date"`
	Uptime        string    `json:"uptime,omitempty"`
	Version       string    `json:"version,omitempty"`
	Players       []string  `json:"players"`
	TPS           float64   `json:"tps,omitempty"`
	PlayerCount   int       `json:"player_count"`
	MaxPlayers    int       `json:"max_players"`
	Online        bool      `json:"online"`
}

// Maintenance is the administrative override flag.
type Maintenance struct {
	Reason string `json:"reason"`
	Active bool   `json:"active"`
}

// DefaultRecord returns the record used when no state exists yet.
func DefaultRecord(maxPlayers int) StatusRecord {
	return StatusRecord{
		Server: ServerStatus{
			MaxPlayers: maxPlayers,
			Players:    []string{},
		},
	}
}

// UpstreamStatus is the status document reported by the game server.
// Fields missing from the response keep their zero values.
type UpstreamStatus struct {
	TemporalStorm string   `json:"temporalStorm"`
	PrettyDate    string   `json:"prettyDate"`
	Time          string   `json:"time,omitempty"`
	Uptime        string   `json:"uptime,omitempty"`
	Version       string   `json:"version,omitempty"`
	Players       []string `json:"players"`
	TPS           float64  `json:"tps,omitempty"`
	PlayerCount   int      `json:"playerCount"`
	MaxPlayers    int      `json:"maxPlayers"`
	Online        bool     `json:"online"`
}

// Offline is the status assumed whenever the upstream cannot be reached.
func Offline() UpstreamStatus {
	return UpstreamStatus{Online: false}
}

// JournalEntry is a single processed notification stored in the journal.
type JournalEntry struct {
	CreatedAt time.Time `json:"created_at"`
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
	ID        int64     `json:"id"`
}

// Journal outcomes.
const (
	OutcomeDelivered    = "delivered"
	OutcomeAcknowledged = "acknowledged"
	OutcomeMaintenance  = "maintenance"
	OutcomeCooldown     = "cooldown"
	OutcomeNoChannel    = "no_channel"
	OutcomeFailed       = "failed"
)
