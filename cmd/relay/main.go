package main

import (
	"chat-relay/infrastructure/discord"
	"chat-relay/infrastructure/telegram"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and owns their lifecycle, so that deferred
// cleanup runs before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Routing configuration, malformed documents abort startup
	store := repositories.NewConfigStore(log, config.ChannelsFile, config.KeywordsFile)
	if _, err := store.Load(); err != nil {
		return exitConfig, fmt.Errorf("loading routing configuration: %w", err)
	}

	// 3. Audit journal (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	audit := repositories.NewAuditRepository(db, log)

	// 4. Collaborators
	metrics := observability.NewMetrics()
	source := telegram.NewClient(log, config.TelegramAPIURL, config.TelegramBotToken, config.TelegramPollTimeout)
	delivery := discord.NewClient(log, config.DiscordAPIURL, config.DiscordBotToken, config.DiscordChannelID)
	dispatcher := runtime.NewDispatcher(log, delivery, audit, metrics, config.MaxInflightDeliveries, config.DeliveryTimeout)
	admin := services.NewAdminService(log, store, audit, metrics, config.AdminIDs())

	relay := runtime.NewRelay(log, workers.NewSupervisor(log, config.RestartInterval),
		source, store, admin, dispatcher, metrics,
		runtime.RelayOptions{
			BufferSize:        config.EventBufferSize,
			ReplyTimeout:      config.ReplyTimeout,
			ShutdownGrace:     config.ShutdownGrace,
			MetricsAddr:       config.MetricsAddr,
			HeartbeatInterval: config.HeartbeatInterval,
		})

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Run until interrupted
	log.Info("Relay starting", "at", time.Now().UTC(), "admins", len(config.AdminIDs()))
	if err = relay.Run(ctx); err != nil {
		_ = source.Close()
		return exitRuntime, err
	}

	// 7. Final Cleanup
	log.Info("Shutting down gracefully...")
	if err = relay.Shutdown(); err != nil {
		log.Warn("Shutdown incomplete", "error", err)
	}
	log.Info("Relay stopped cleanly")
	return exitOK, nil
}
