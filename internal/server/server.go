package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amitsegev/salonbook/internal/calsync"
	"github.com/amitsegev/salonbook/internal/database"
	"github.com/amitsegev/salonbook/internal/gcal"
	"github.com/amitsegev/salonbook/internal/notify"
	"github.com/amitsegev/salonbook/internal/reminder"
	"github.com/amitsegev/salonbook/internal/whatsapp"
)

// SyncManager mirrors the calendar sync surface the handlers call.
type SyncManager interface {
	SyncAppointment(appointmentID string, appt *database.Appointment) calsync.SyncResult
	RemoveAppointmentSync(remoteEventID string) calsync.RemoveResult
}

// ReminderSweeper runs one reminder selection pass.
type ReminderSweeper interface {
	RunReminderSweep(ctx context.Context) reminder.SweepResult
}

// NotificationDispatcher sends booking event notifications.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, eventType notify.EventType, audience notify.Audience, recipients []notify.Recipient, msg notify.Message) notify.DispatchResult
}

type Server struct {
	db         *database.DB
	sync       SyncManager
	sweeper    ReminderSweeper
	dispatcher NotificationDispatcher
	gcalClient *gcal.Client
	waClient   *whatsapp.Client

	adminEmail string
	adminChat  string
	appURL     string

	httpSrv *http.Server
	port    int
}

// ServerConfig holds the wiring for server creation.
type ServerConfig struct {
	DB         *database.DB
	Sync       SyncManager
	Sweeper    ReminderSweeper
	Dispatcher NotificationDispatcher
	GCalClient *gcal.Client
	WAClient   *whatsapp.Client
	AdminEmail string
	AdminChat  string
	AppURL     string
	Port       int
}

func New(cfg ServerConfig) *Server {
	s := &Server{
		db:         cfg.DB,
		sync:       cfg.Sync,
		sweeper:    cfg.Sweeper,
		dispatcher: cfg.Dispatcher,
		gcalClient: cfg.GCalClient,
		waClient:   cfg.WAClient,
		adminEmail: cfg.AdminEmail,
		adminChat:  cfg.AdminChat,
		appURL:     cfg.AppURL,
		port:       cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	// Appointments API
	mux.HandleFunc("POST /api/appointments", s.handleCreateAppointment)
	mux.HandleFunc("GET /api/appointments", s.handleListAppointments)
	mux.HandleFunc("GET /api/appointments/{id}", s.handleGetAppointment)
	mux.HandleFunc("PUT /api/appointments/{id}", s.handleUpdateAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/confirm", s.handleConfirmAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/cancel", s.handleCancelAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/complete", s.handleCompleteAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/invoice", s.handleInvoiceAppointment)

	// Reminders API
	mux.HandleFunc("POST /api/reminders/sweep", s.handleReminderSweep)

	// Settings API
	mux.HandleFunc("GET /api/settings/calendar-sync", s.handleGetCalendarSyncSettings)
	mux.HandleFunc("PUT /api/settings/calendar-sync", s.handleUpdateCalendarSyncSettings)
	mux.HandleFunc("GET /api/settings/notifications", s.handleGetNotificationSettings)
	mux.HandleFunc("PUT /api/settings/notifications", s.handleUpdateNotificationSettings)

	// Google Calendar API
	mux.HandleFunc("GET /api/gcal/status", s.handleGCalStatus)
	mux.HandleFunc("GET /api/gcal/calendars", s.handleGCalListCalendars)
	mux.HandleFunc("POST /api/gcal/connect", s.handleGCalConnect)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
}

func (s *Server) Start() error {
	log.Info().Int("port", s.port).Msg("starting HTTP server")
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// corsMiddleware adds CORS headers to allow booking frontend requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
