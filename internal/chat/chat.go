// Package chat defines the chat platform sink and the single-threaded loop
// every sink call runs on.
package chat

import (
	"errors"
	"slices"
	"unicode/utf8"
)

// ErrForbidden is returned by sinks when the bot lacks permission for an action.
var ErrForbidden = errors.New("chat: permission denied")

// Status is the availability indicator shown next to the bot.
type Status string

// Presence statuses.
const (
	StatusOnline Status = "online"
	StatusIdle   Status = "idle"
	StatusDND    Status = "dnd"
)

// Presence is the bot's displayed activity text and availability.
type Presence struct {
	Status Status
	Text   string
}

// Channel is a resolved message destination.
type Channel struct {
	ID   string
	Name string
}

// Field is a named embed value.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich presentation payload.
type Embed struct {
	Title       string
	Description string
	Footer      string
	Image       string
	Fields      []Field
	Color       int
}

// AddField appends a field and returns the embed for chaining.
func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, Field{Name: name, Value: value, Inline: inline})
	return e
}

// Truncate cuts s to limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if limit < 4 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

// Sink is the chat platform. Implementations are only called from the Loop.
type Sink interface {
	SendMessage(channelID, content string) error
	SendEmbed(channelID string, e *Embed) (string, error)
	EditEmbed(channelID, messageID string, e *Embed) error
	SetPresence(p Presence) error
	GetUserRoles(guildID, userID string) ([]string, error)
	ResolveChannel(channelID string) (*Channel, error)
}

// Authorizer checks role membership.
type Authorizer interface {
	HasRole(guildID, userID, roleID string) bool
}

// RoleAuthorizer answers role checks through a Sink.
type RoleAuthorizer struct {
	Sink Sink
}

// HasRole reports whether the user holds roleID. Lookup errors deny access.
func (a RoleAuthorizer) HasRole(guildID, userID, roleID string) bool {
	if roleID == "" || userID == "" {
		return false
	}

	roles, err := a.Sink.GetUserRoles(guildID, userID)
	if err != nil {
		return false
	}

	return slices.Contains(roles, roleID)
}
