package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amitsegev/salonbook/internal/calsync"
	"github.com/amitsegev/salonbook/internal/config"
	"github.com/amitsegev/salonbook/internal/database"
	"github.com/amitsegev/salonbook/internal/gcal"
	"github.com/amitsegev/salonbook/internal/notify"
	"github.com/amitsegev/salonbook/internal/reminder"
	"github.com/amitsegev/salonbook/internal/server"
	"github.com/amitsegev/salonbook/internal/telegram"
	"github.com/amitsegev/salonbook/internal/timeutil"
	"github.com/amitsegev/salonbook/internal/whatsapp"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.LoadFromEnv()

	loc, fallback := timeutil.ResolveLocation(cfg.SalonTimezone)
	if fallback && cfg.SalonTimezone != "" {
		log.Warn().Str("timezone", cfg.SalonTimezone).Msg("unknown timezone, falling back to UTC")
	}

	// Phase 1: Core infrastructure
	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// Phase 2: External clients. Each one is optional; a missing client
	// degrades its feature to a structured failure, not a crash.
	gcalClient := initGoogleCalendar(cfg)
	waClient := initWhatsApp(cfg)
	tgClient := initTelegram(cfg)

	// Phase 3: Pipeline components
	dispatcher := initDispatcher(db, cfg, waClient, tgClient)

	var calendarAPI calsync.CalendarAPI
	if gcalClient != nil {
		calendarAPI = gcalClient
	}
	syncManager := calsync.NewManager(db, calendarAPI, loc)
	sweeper := reminder.NewScheduler(db, dispatcher, loc)

	srv := server.New(server.ServerConfig{
		DB:         db,
		Sync:       syncManager,
		Sweeper:    sweeper,
		Dispatcher: dispatcher,
		GCalClient: gcalClient,
		WAClient:   waClient,
		AdminEmail: cfg.AdminEmail,
		AdminChat:  cfg.TelegramAdminChat,
		AppURL:     cfg.AppURL,
		Port:       cfg.HTTPPort,
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	waitForShutdown(srv, waClient, tgClient)
}

func initGoogleCalendar(cfg *config.Config) *gcal.Client {
	client, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	if err != nil {
		log.Warn().Err(err).Msg("Google Calendar client unavailable, calendar sync disabled")
		return nil
	}
	if client.IsAuthenticated() {
		log.Info().Msg("Google Calendar client initialized")
	} else {
		log.Info().Msg("Google Calendar not authenticated, visit /api/gcal/connect to authorize")
	}
	return client
}

func initWhatsApp(cfg *config.Config) *whatsapp.Client {
	client, err := whatsapp.NewClient(cfg.WhatsAppDBPath)
	if err != nil {
		log.Warn().Err(err).Msg("WhatsApp client unavailable, customer notifications disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("WhatsApp connection failed, customer notifications disabled")
		return nil
	}

	log.Info().Msg("WhatsApp client connected")
	return client
}

func initTelegram(cfg *config.Config) *telegram.Client {
	if cfg.TelegramAPIID == 0 || cfg.TelegramAPIHash == "" {
		log.Info().Msg("Telegram not configured (TELEGRAM_API_ID and TELEGRAM_API_HASH required)")
		return nil
	}

	client, err := telegram.NewClient(telegram.ClientConfig{
		APIID:       cfg.TelegramAPIID,
		APIHash:     cfg.TelegramAPIHash,
		SessionPath: cfg.TelegramSessionPath,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to create Telegram client")
		return nil
	}

	if err := client.Connect(); err != nil {
		log.Warn().Err(err).Msg("failed to connect Telegram")
		return nil
	}

	log.Info().Msg("Telegram client connected")
	return client
}

func initDispatcher(db *database.DB, cfg *config.Config, waClient *whatsapp.Client, tgClient *telegram.Client) *notify.Dispatcher {
	var notifiers []notify.Notifier

	if waClient != nil {
		notifiers = append(notifiers, notify.NewWhatsAppNotifier(waClient))
	}
	if emailNotifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.ResendFromAddress, cfg.AppURL); emailNotifier != nil {
		notifiers = append(notifiers, emailNotifier)
		log.Info().Msg("email notification channel configured (Resend)")
	}
	if tgClient != nil {
		notifiers = append(notifiers, notify.NewTelegramNotifier(tgClient))
	}

	return notify.NewDispatcher(db, notifiers...)
}

func waitForShutdown(srv *server.Server, waClient *whatsapp.Client, tgClient *telegram.Client) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if tgClient != nil {
		tgClient.Disconnect()
	}
	if waClient != nil {
		waClient.Disconnect()
	}
}
