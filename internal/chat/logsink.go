package chat

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// LogSink writes chat output to the log. It stands in for the chat platform
// when no bot credential is configured.
type LogSink struct {
	seq atomic.Int64
}

// SendMessage implements Sink.
func (s *LogSink) SendMessage(channelID, content string) error {
	log.Info().Str("channel", channelID).Str("content", content).Msg("Chat message")
	return nil
}

// SendEmbed implements Sink.
func (s *LogSink) SendEmbed(channelID string, e *Embed) (string, error) {
	log.Info().
		Str("channel", channelID).
		Str("title", e.Title).
		Str("description", e.Description).
		Int("fields", len(e.Fields)).
		Msg("Chat embed")

	return strconv.FormatInt(s.seq.Add(1), 10), nil
}

// EditEmbed implements Sink.
func (s *LogSink) EditEmbed(channelID, messageID string, e *Embed) error {
	log.Debug().Str("channel", channelID).Str("message", messageID).Str("title", e.Title).Msg("Chat embed edited")
	return nil
}

// SetPresence implements Sink.
func (s *LogSink) SetPresence(p Presence) error {
	log.Debug().Str("status", string(p.Status)).Str("text", p.Text).Msg("Presence updated")
	return nil
}

// GetUserRoles implements Sink. Without a platform nobody holds a role.
func (s *LogSink) GetUserRoles(_, _ string) ([]string, error) {
	return nil, errors.New("chat: no platform connected")
}

// ResolveChannel implements Sink.
func (s *LogSink) ResolveChannel(channelID string) (*Channel, error) {
	if channelID == "" {
		return nil, errors.New("chat: empty channel ID")
	}

	return &Channel{ID: channelID, Name: channelID}, nil
}
