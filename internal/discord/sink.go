// Package discord connects the relay to Discord through discordgo.
package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/woozymasta/vsrelay/internal/chat"
)

// Sink implements chat.Sink on top of a discordgo session.
type Sink struct {
	s *discordgo.Session
}

// NewSink wraps an existing session.
func NewSink(s *discordgo.Session) *Sink {
	return &Sink{s: s}
}

// SendMessage posts a plain text message.
func (k *Sink) SendMessage(channelID, content string) error {
	_, err := k.s.ChannelMessageSend(channelID, content)
	return wrap(err)
}

// SendEmbed posts an embed and returns the new message ID.
func (k *Sink) SendEmbed(channelID string, e *chat.Embed) (string, error) {
	msg, err := k.s.ChannelMessageSendEmbed(channelID, toMessageEmbed(e))
	if err != nil {
		return "", wrap(err)
	}

	return msg.ID, nil
}

// EditEmbed replaces the embed of an existing message.
func (k *Sink) EditEmbed(channelID, messageID string, e *chat.Embed) error {
	_, err := k.s.ChannelMessageEditEmbed(channelID, messageID, toMessageEmbed(e))
	return wrap(err)
}

// SetPresence updates the bot status and "playing" activity.
func (k *Sink) SetPresence(p chat.Presence) error {
	return k.s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(p.Status),
		Activities: []*discordgo.Activity{{
			Name: p.Text,
			Type: discordgo.ActivityTypeGame,
		}},
	})
}

// GetUserRoles returns the role IDs of a guild member, preferring the state cache.
func (k *Sink) GetUserRoles(guildID, userID string) ([]string, error) {
	if guildID == "" {
		return nil, fmt.Errorf("roles of %s: not a guild message", userID)
	}

	if m, err := k.s.State.Member(guildID, userID); err == nil {
		return m.Roles, nil
	}

	m, err := k.s.GuildMember(guildID, userID)
	if err != nil {
		return nil, wrap(err)
	}

	return m.Roles, nil
}

// ResolveChannel looks a channel up, preferring the state cache.
func (k *Sink) ResolveChannel(channelID string) (*chat.Channel, error) {
	if channelID == "" {
		return nil, errors.New("channel id is empty")
	}

	if c, err := k.s.State.Channel(channelID); err == nil {
		return &chat.Channel{ID: c.ID, Name: c.Name}, nil
	}

	c, err := k.s.Channel(channelID)
	if err != nil {
		return nil, wrap(err)
	}

	return &chat.Channel{ID: c.ID, Name: c.Name}, nil
}

func toMessageEmbed(e *chat.Embed) *discordgo.MessageEmbed {
	me := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if e.Image != "" {
		me.Image = &discordgo.MessageEmbedImage{URL: e.Image}
	}
	if e.Footer != "" {
		me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	return me
}

// wrap maps permission failures to chat.ErrForbidden.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %w", chat.ErrForbidden, err)
	}

	return err
}
