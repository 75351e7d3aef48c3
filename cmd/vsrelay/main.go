// main is the entry point of the vsrelay service.
// It wires the status poller, the notification gateway and the chat connection.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/board"
	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/commands"
	"github.com/woozymasta/vsrelay/internal/config"
	"github.com/woozymasta/vsrelay/internal/discord"
	"github.com/woozymasta/vsrelay/internal/fake"
	"github.com/woozymasta/vsrelay/internal/guides"
	"github.com/woozymasta/vsrelay/internal/logger"
	"github.com/woozymasta/vsrelay/internal/maintenance"
	"github.com/woozymasta/vsrelay/internal/notify"
	"github.com/woozymasta/vsrelay/internal/poller"
	"github.com/woozymasta/vsrelay/internal/server"
	"github.com/woozymasta/vsrelay/internal/source"
	"github.com/woozymasta/vsrelay/internal/state"
	"github.com/woozymasta/vsrelay/internal/storage"
	"github.com/woozymasta/vsrelay/internal/vars"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	build := vars.Info()
	log.Info().
		Str("version", build.Version).
		Str("commit", build.Commit).
		Str("server", cfg.General.ServerName).
		Msg("Starting vsrelay service...")

	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	store := state.New(cfg.State.Path, cfg.Source.MaxPlayers)
	log.Info().Str("path", store.Path()).Msg("Status record store opened")

	// Journal
	journal, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize journal database")
	}

	// data generation or one-shot maintenance tasks
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateJournal(journal, cfg.Storage.GenerateCount)
		closeJournal(journal)
		return
	} else if maintenance.Run(cfg, store, journal) {
		closeJournal(journal)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Message pools
	catalog := notify.NewCatalog(cfg.Notify.StormMessages, cfg.Notify.SeasonMessages)
	if _, err := catalog.Load(); err != nil {
		log.Error().Err(err).Msg("Failed to load message pools, using built-in texts")
	}
	if cfg.Notify.Watch {
		go func() {
			if err := catalog.Watch(ctx); err != nil {
				log.Error().Err(err).Msg("Message pool watcher stopped")
			}
		}()
	}

	// Guides
	guideStore := guides.New(cfg.Guides.Path)
	if err := guideStore.Load(); err != nil {
		log.Error().Err(err).Str("path", guideStore.Path()).Msg("Failed to load guides")
	}

	loop := chat.NewLoop(64)
	go loop.Run(context.Background())

	// Chat connection
	var (
		client *discord.Client
		sink   chat.Sink = &chat.LogSink{}
	)
	if cfg.Discord.Token != "" {
		client, err = discord.New(cfg.Discord.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Discord client")
		}
		sink = client.Sink()
	}

	dispatcher := notify.New(sink, store, catalog, journal, notify.Options{
		ChannelID: cfg.Discord.NotificationChannel,
		Cooldown:  cfg.Notify.Cooldown,
		Extended:  cfg.Notify.Extended,
	})

	statusBoard := board.New(sink, cfg.Discord.StatusChannel, cfg.General.ServerName, cfg.Source.InactiveStorm)

	adminRole := ""
	if cfg.AdminConfigured() {
		adminRole = cfg.Discord.AdminRole
	}
	router := commands.New(commands.Deps{
		Sink:          sink,
		Auth:          chat.RoleAuthorizer{Sink: sink},
		Store:         store,
		Dispatcher:    dispatcher,
		Catalog:       catalog,
		History:       journal,
		Board:         statusBoard,
		Guides:        guideStore,
		Prefix:        cfg.Discord.Prefix,
		AdminRole:     adminRole,
		ServerName:    cfg.General.ServerName,
		InactiveStorm: cfg.Source.InactiveStorm,
	})

	if client != nil {
		dispatcher.SetReady(false)
		client.OnReady(loop, func() { dispatcher.SetReady(true) })
		client.HandleCommands(loop, router)

		go func() {
			if err := client.Open(ctx, cfg.Poller.ReconnectDelay); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Discord connection abandoned")
			}
		}()
	}

	// Status poller
	statusPoller := poller.New(source.New(cfg.Source), store, loop, sink, statusBoard, poller.Options{
		ServerName:        cfg.General.ServerName,
		InactiveStorm:     cfg.Source.InactiveStorm,
		Interval:          cfg.Poller.Interval,
		PublishTimeout:    cfg.Gateway.DispatchTimeout,
		DefaultMaxPlayers: cfg.Source.MaxPlayers,
	})
	statusPoller.Start(ctx)

	// Notification gateway
	srvHandler := server.New(dispatcher, loop, cfg.Gateway)

	httpServer := &http.Server{
		Addr:         cfg.Gateway.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Gateway.DispatchTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Gateway.Address).Str("path", cfg.Gateway.Path).Msg("Notification gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Notification gateway failed, continuing without it")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Gateway forced to shutdown")
	}
	srvHandler.Close()

	cancel()
	statusPoller.Stop()

	loop.Stop()
	if client != nil {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Discord session")
		}
	}

	closeJournal(journal)

	log.Info().Msg("vsrelay exited")
}

func closeJournal(journal *storage.Repository) {
	if err := journal.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing journal database")
	}
}
