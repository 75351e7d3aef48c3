// Package chattest provides a recording chat.Sink for tests.
package chattest

import (
	"strconv"
	"sync"

	"github.com/woozymasta/vsrelay/internal/chat"
)

// Sent is one recorded outbound message or embed.
type Sent struct {
	Embed     *chat.Embed
	ChannelID string
	MessageID string
	Content   string
	Edited    bool
}

// Sink records every call. Set the error fields to simulate failures.
type Sink struct {
	Roles      map[string][]string
	SendErr    error
	ResolveErr error
	RolesErr   error

	mu        sync.Mutex
	sent      []Sent
	presences []chat.Presence
	resolves  int
	seq       int
}

// New returns an empty recording sink.
func New() *Sink {
	return &Sink{Roles: map[string][]string{}}
}

// SendMessage implements chat.Sink.
func (s *Sink) SendMessage(channelID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SendErr != nil {
		return s.SendErr
	}
	s.sent = append(s.sent, Sent{ChannelID: channelID, Content: content})

	return nil
}

// SendEmbed implements chat.Sink.
func (s *Sink) SendEmbed(channelID string, e *chat.Embed) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SendErr != nil {
		return "", s.SendErr
	}
	s.seq++
	id := strconv.Itoa(s.seq)
	s.sent = append(s.sent, Sent{ChannelID: channelID, MessageID: id, Embed: e})

	return id, nil
}

// EditEmbed implements chat.Sink.
func (s *Sink) EditEmbed(channelID, messageID string, e *chat.Embed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SendErr != nil {
		return s.SendErr
	}
	s.sent = append(s.sent, Sent{ChannelID: channelID, MessageID: messageID, Embed: e, Edited: true})

	return nil
}

// SetPresence implements chat.Sink.
func (s *Sink) SetPresence(p chat.Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.presences = append(s.presences, p)
	return nil
}

// GetUserRoles implements chat.Sink.
func (s *Sink) GetUserRoles(_, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RolesErr != nil {
		return nil, s.RolesErr
	}

	return s.Roles[userID], nil
}

// ResolveChannel implements chat.Sink.
func (s *Sink) ResolveChannel(channelID string) (*chat.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolves++
	if s.ResolveErr != nil {
		return nil, s.ResolveErr
	}

	return &chat.Channel{ID: channelID, Name: "channel-" + channelID}, nil
}

// Sent returns a copy of everything sent so far.
func (s *Sink) Sent() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Sent(nil), s.sent...)
}

// Presences returns a copy of every presence update so far.
func (s *Sink) Presences() []chat.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]chat.Presence(nil), s.presences...)
}

// LastPresence returns the most recent presence update.
func (s *Sink) LastPresence() (chat.Presence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.presences) == 0 {
		return chat.Presence{}, false
	}

	return s.presences[len(s.presences)-1], true
}

// Resolves counts ResolveChannel calls.
func (s *Sink) Resolves() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolves
}
