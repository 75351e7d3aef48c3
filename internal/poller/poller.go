// Package poller periodically refreshes the persisted server status from
// the game server and publishes it as bot presence and the status board.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/board"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/logger"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/source"
	"github.com/woozymasta/vsrelay/internal/state"
)

// errMaintenanceStarted aborts a merge when maintenance was enabled during the fetch.
var errMaintenanceStarted = errors.New("maintenance enabled during fetch")

// Options configures a Poller.
type Options struct {
	ServerName        string
	InactiveStorm     string
	Interval          time.Duration
	PublishTimeout    time.Duration
	DefaultMaxPlayers int
}

// Poller runs the status refresh on a fixed interval. Ticks never overlap.
type Poller struct {
	src   source.Source
	store *state.Store
	loop  *chat.Loop
	sink  chat.Sink
	board *board.Board

	cron   *cron.Cron
	cancel context.CancelFunc
	now    func() time.Time

	opts Options
	wg   sync.WaitGroup
}

// New creates a poller. loop may be nil, in which case sink calls run on the ticking goroutine.
func New(src source.Source, store *state.Store, loop *chat.Loop, sink chat.Sink, b *board.Board, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 10 * time.Second
	}

	return &Poller{
		src:   src,
		store: store,
		loop:  loop,
		sink:  sink,
		board: b,
		now:   time.Now,
		opts:  opts,
	}
}

// Start runs one tick immediately and then every interval until Stop.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	l := logger.Cron("poller")
	job := cron.NewChain(cron.Recover(l), cron.SkipIfStillRunning(l)).Then(cron.FuncJob(func() {
		p.Tick(ctx)
	}))

	p.cron = cron.New(cron.WithLogger(l))
	p.cron.Schedule(cron.Every(p.opts.Interval), job)
	p.cron.Start()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		job.Run()
	}()

	log.Info().Dur("interval", p.opts.Interval).Msg("Status poller started")
}

// Stop cancels the in-flight tick and waits for it to return.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}

	p.cancel()
	<-p.cron.Stop().Done()
	p.wg.Wait()

	log.Info().Msg("Status poller stopped")
}

// Tick performs one refresh and returns the resulting record.
// Maintenance mode skips the upstream fetch and keeps the record unchanged.
func (p *Poller) Tick(ctx context.Context) models.StatusRecord {
	rec := p.store.Load()
	if rec.Maintenance.Active {
		log.Debug().Str("reason", rec.Maintenance.Reason).Msg("Maintenance active, skipping status fetch")
		p.publish(ctx, rec)
		return rec
	}

	up := Reconcile(p.src.Fetch(ctx), p.opts.DefaultMaxPlayers)
	if ctx.Err() != nil {
		return rec
	}

	prevOnline := rec.Server.Online
	updated, err := p.store.Update(func(r *models.StatusRecord) error {
		if r.Maintenance.Active {
			return errMaintenanceStarted
		}
		Merge(&r.Server, up, p.opts.InactiveStorm, p.now())
		return nil
	})
	switch {
	case errors.Is(err, errMaintenanceStarted):
		log.Debug().Msg("Maintenance enabled during fetch, discarding result")
	case err != nil:
		log.Error().Err(err).Msg("Failed to persist server status")
	}

	switch {
	case !prevOnline && updated.Server.Online:
		log.Warn().Int("players", updated.Server.PlayerCount).Msg("Game server is online")
	case prevOnline && !updated.Server.Online:
		log.Warn().Msg("Game server went offline")
	}

	p.publish(ctx, updated)

	return updated
}

// publish pushes presence and the status board from the chat loop.
func (p *Poller) publish(ctx context.Context, rec models.StatusRecord) {
	presence := PresenceFor(rec, p.opts.ServerName, p.opts.InactiveStorm)

	fn := func() error {
		if err := p.sink.SetPresence(presence); err != nil {
			log.Warn().Err(err).Msg("Failed to update presence")
		}
		return p.board.Update(rec)
	}

	var err error
	if p.loop == nil {
		err = fn()
	} else {
		pctx, cancel := context.WithTimeout(ctx, p.opts.PublishTimeout)
		err = p.loop.Do(pctx, fn)
		cancel()
	}
	if err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("Failed to publish server status")
	}
}
