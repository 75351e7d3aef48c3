// Package notify turns game server events into chat notifications.
//
// The Dispatcher gates events by maintenance mode and a per-kind cooldown,
// renders storm and season events into embeds and delivers them to the
// notification channel. It must only be called from the chat loop.
package notify

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/state"
)

var (
	// ErrMaintenance is returned for events suppressed by maintenance mode.
	ErrMaintenance = errors.New("suppressed by maintenance mode")

	// ErrCooldown is returned for events of a kind dispatched too recently.
	ErrCooldown = errors.New("rate limited")

	// ErrNoChannel is returned when the notification channel cannot be resolved.
	ErrNoChannel = errors.New("notification channel unavailable")

	// ErrUnknownKind is returned for events of an unrecognized type.
	ErrUnknownKind = errors.New("unknown notification type")

	// ErrNotReady is returned while the chat connection is not established.
	ErrNotReady = errors.New("chat connection not ready")
)

// Recorder stores processed notifications.
type Recorder interface {
	Record(e models.JournalEntry) error
}

// Options configures a Dispatcher.
type Options struct {
	ChannelID string
	Cooldown  time.Duration
	Extended  bool
}

// Dispatcher processes notification events. It owns the rate-limit table
// and the cached notification channel.
type Dispatcher struct {
	sink    chat.Sink
	store   *state.Store
	catalog *Catalog
	journal Recorder

	now  func() time.Time
	pick func(n int) int

	channel  lazyChannel
	last     map[models.Kind]time.Time
	cooldown time.Duration

	mu       sync.Mutex
	ready    atomic.Bool
	extended bool
}

// New creates a ready dispatcher. catalog and journal may be nil.
func New(sink chat.Sink, store *state.Store, catalog *Catalog, journal Recorder, opts Options) *Dispatcher {
	d := &Dispatcher{
		sink:     sink,
		store:    store,
		catalog:  catalog,
		journal:  journal,
		now:      time.Now,
		pick:     rand.IntN,
		channel:  lazyChannel{id: opts.ChannelID},
		last:     make(map[models.Kind]time.Time),
		cooldown: opts.Cooldown,
		extended: opts.Extended,
	}
	d.ready.Store(true)

	return d
}

// SetReady marks the chat connection as usable or not.
func (d *Dispatcher) SetReady(ready bool) {
	d.ready.Store(ready)
}

// SetClock replaces the time source.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// SetPicker replaces the random pool index picker.
func (d *Dispatcher) SetPicker(pick func(n int) int) {
	d.pick = pick
}

// Process handles one inbound event. A nil result means the event was
// delivered or acknowledged. A batch always succeeds once every sub-event
// has been processed in order.
func (d *Dispatcher) Process(n models.Notification) error {
	if !d.ready.Load() {
		return ErrNotReady
	}

	kind := n.Kind()
	if kind == models.KindBatch {
		for i, sub := range n.Notifications {
			if err := d.Process(sub); err != nil {
				log.Debug().Err(err).Int("index", i).Str("type", sub.Type).Msg("Batch notification not delivered")
			}
		}
		return nil
	}

	if kind == models.KindUnknown {
		d.record(models.JournalEntry{Kind: n.Type, Outcome: models.OutcomeFailed, Detail: ErrUnknownKind.Error()})
		return fmt.Errorf("%w: %q", ErrUnknownKind, n.Type)
	}

	if kind != models.KindServerStatus {
		if rec := d.store.Load(); rec.Maintenance.Active {
			d.record(models.JournalEntry{Kind: string(kind), Outcome: models.OutcomeMaintenance, Detail: rec.Maintenance.Reason})
			return ErrMaintenance
		}
	}

	if wait, ok := d.allow(kind); !ok {
		d.record(models.JournalEntry{Kind: string(kind), Outcome: models.OutcomeCooldown})
		return fmt.Errorf("%w: %s cooldown %s remaining", ErrCooldown, kind, wait.Round(time.Millisecond))
	}

	if kind == models.KindServerStatus {
		d.record(models.JournalEntry{Kind: string(kind), Outcome: models.OutcomeAcknowledged})
		return nil
	}

	ch, err := d.channel.get(d.sink)
	if err != nil {
		log.Error().Err(err).Str("channel", d.channel.id).Msg("Failed to resolve notification channel")
		d.record(models.JournalEntry{Kind: string(kind), Outcome: models.OutcomeNoChannel, Detail: err.Error()})
		return fmt.Errorf("%w: %w", ErrNoChannel, err)
	}

	embed := d.Render(kind, n.Payload())
	if _, err := d.sink.SendEmbed(ch.ID, embed); err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Str("channel", ch.ID).Msg("Failed to deliver notification")
		d.record(models.JournalEntry{Kind: string(kind), Outcome: models.OutcomeFailed, Title: embed.Title, Detail: err.Error()})
		return fmt.Errorf("deliver %s notification: %w", kind, err)
	}

	log.Info().Str("kind", string(kind)).Str("title", embed.Title).Msg("Notification delivered")
	d.record(models.JournalEntry{Kind: string(kind), Outcome: models.OutcomeDelivered, Title: embed.Title, Detail: embed.Description})

	return nil
}

// Render builds the embed for a storm or season payload.
func (d *Dispatcher) Render(kind models.Kind, p models.Payload) *chat.Embed {
	if kind == models.KindSeason {
		return d.renderSeason(p)
	}

	return d.renderStorm(p)
}

// allow records a dispatch of kind unless one happened within the cooldown.
// The timestamp is taken before delivery so failed sends still count.
func (d *Dispatcher) allow(kind models.Kind) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.last[kind]; ok {
		if elapsed := now.Sub(last); elapsed < d.cooldown {
			return d.cooldown - elapsed, false
		}
	}
	d.last[kind] = now

	return 0, true
}

func (d *Dispatcher) record(e models.JournalEntry) {
	if d.journal == nil {
		return
	}

	e.CreatedAt = d.now()
	if err := d.journal.Record(e); err != nil {
		log.Warn().Err(err).Str("kind", e.Kind).Msg("Failed to journal notification")
	}
}

// lazyChannel resolves the notification channel once and caches it.
// A failed resolution is retried on the next event.
type lazyChannel struct {
	ch *chat.Channel
	id string
	mu sync.Mutex
}

func (l *lazyChannel) get(sink chat.Sink) (*chat.Channel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ch != nil {
		return l.ch, nil
	}
	if l.id == "" {
		return nil, errors.New("notification channel is not configured")
	}

	ch, err := sink.ResolveChannel(l.id)
	if err != nil {
		return nil, err
	}
	l.ch = ch

	return ch, nil
}
