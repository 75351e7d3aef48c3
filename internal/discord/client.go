package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/commands"
)

// Client owns the gateway session and forwards its events to the chat loop.
type Client struct {
	session *discordgo.Session
	sink    *Sink
}

// New creates a session with the intents needed to read prefixed commands.
func New(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Client{session: session, sink: NewSink(session)}, nil
}

// Sink returns the chat.Sink backed by this session.
func (c *Client) Sink() *Sink {
	return c.sink
}

// OnReady registers fn to run on the loop each time the gateway reports ready.
func (c *Client) OnReady(loop *chat.Loop, fn func()) {
	c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Connected to Discord")
		if err := loop.Go(fn); err != nil {
			log.Warn().Err(err).Msg("Ready event dropped")
		}
	})
	c.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		log.Warn().Msg("Disconnected from Discord")
	})
}

// HandleCommands routes user messages to the router on the loop.
// Messages arriving while the loop buffer is full are dropped.
func (c *Client) HandleCommands(loop *chat.Loop, router *commands.Router) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}

		msg := commands.Message{
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
			UserID:    m.Author.ID,
			Content:   m.Content,
		}
		// Never stall the gateway event goroutine on a full loop
		if err := loop.TryGo(func() { router.Handle(msg) }); err != nil {
			log.Warn().Err(err).Str("channel", m.ChannelID).Str("user", m.Author.ID).Msg("Command dropped")
		}
	})
}

// Open connects to the gateway, retrying every delay until ctx is done.
// discordgo reconnects on its own once the first connection succeeds.
func (c *Client) Open(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		delay = 5 * time.Second
	}

	for {
		err := c.session.Open()
		if err == nil {
			return nil
		}
		log.Error().Err(err).Dur("retry", delay).Msg("Failed to connect to Discord")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}
