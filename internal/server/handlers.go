package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amitsegev/salonbook/internal/database"
	"github.com/amitsegev/salonbook/internal/notify"
	"github.com/amitsegev/salonbook/internal/timeutil"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// adminRecipients lists the configured admin delivery addresses. An empty
// slice means no admin channel is set up, which is a valid deployment.
func (s *Server) adminRecipients() []notify.Recipient {
	var recipients []notify.Recipient
	if s.adminEmail != "" {
		recipients = append(recipients, notify.Recipient{Channel: "email", Address: s.adminEmail})
	}
	if s.adminChat != "" {
		recipients = append(recipients, notify.Recipient{Channel: "telegram", Address: s.adminChat})
	}
	return recipients
}

// notifyCustomer dispatches one customer-facing message over WhatsApp. A
// missing phone means there is nowhere to deliver, reported as suppressed
// rather than failed.
func (s *Server) notifyCustomer(r *http.Request, eventType notify.EventType, a *database.Appointment, msg notify.Message) notify.DispatchResult {
	if a.CustomerPhone == "" {
		return notify.DispatchResult{Success: true, Suppressed: true, Error: "no customer phone on appointment"}
	}
	recipients := []notify.Recipient{{Channel: "whatsapp", Address: a.CustomerPhone}}
	return s.dispatcher.Dispatch(r.Context(), eventType, notify.AudienceCustomer, recipients, msg)
}

func (s *Server) notifyAdmin(r *http.Request, eventType notify.EventType, msg notify.Message) notify.DispatchResult {
	recipients := s.adminRecipients()
	if len(recipients) == 0 {
		return notify.DispatchResult{Success: true, Suppressed: true, Error: "no admin channels configured"}
	}
	return s.dispatcher.Dispatch(r.Context(), eventType, notify.AudienceAdmin, recipients, msg)
}

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	status := map[string]interface{}{
		"status":   "healthy",
		"whatsapp": "disconnected",
		"gcal":     "disconnected",
	}

	if s.waClient != nil && s.waClient.IsLoggedIn() {
		status["whatsapp"] = "connected"
	}
	if s.gcalClient != nil && s.gcalClient.IsAuthenticated() {
		status["gcal"] = "connected"
	}

	respondJSON(w, http.StatusOK, status)
}

// Appointments API

type appointmentRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	ServiceName     string `json:"service_name"`
	ServiceDuration string `json:"service_duration"`
	ServicePrice    string `json:"service_price"`
	Date            string `json:"date"`
	Time            string `json:"time"`
}

func (req *appointmentRequest) validate() error {
	if req.CustomerName == "" || req.ServiceName == "" {
		return errors.New("customer_name and service_name are required")
	}
	if _, err := time.Parse(timeutil.DateLayout, req.Date); err != nil {
		return fmt.Errorf("date must be in %s format", timeutil.DateLayout)
	}
	if _, err := time.Parse(timeutil.TimeLayout, req.Time); err != nil {
		return fmt.Errorf("time must be in %s format", timeutil.TimeLayout)
	}
	return nil
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.db.CreateAppointment(&database.Appointment{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ServiceName:     req.ServiceName,
		ServiceDuration: req.ServiceDuration,
		ServicePrice:    req.ServicePrice,
		Date:            req.Date,
		Time:            req.Time,
		Status:          database.StatusPending,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	syncResult := s.sync.SyncAppointment(created.ID, created)
	customerNotify := s.notifyCustomer(r, notify.EventNewBooking, created, notify.NewBookingMessage(created))
	adminNotify := s.notifyAdmin(r, notify.EventNewBooking, notify.AdminNewBookingMessage(created))

	// Reload to pick up the remote event link the sync may have written.
	appointment, err := s.db.GetAppointment(created.ID)
	if err != nil {
		appointment = created
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"appointment": appointment,
		"sync":        syncResult,
		"notifications": map[string]interface{}{
			"customer": customerNotify,
			"admin":    adminNotify,
		},
	})
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	if _, err := time.Parse(timeutil.DateLayout, date); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("date must be in %s format", timeutil.DateLayout))
		return
	}

	appointments, err := s.db.ListAppointmentsByDate(date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, appointments)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := s.db.GetAppointment(r.PathValue("id"))
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, appointment)
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.db.GetAppointment(id); errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.db.UpdateAppointmentBooking(id, &database.Appointment{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ServiceName:     req.ServiceName,
		ServiceDuration: req.ServiceDuration,
		ServicePrice:    req.ServicePrice,
		Date:            req.Date,
		Time:            req.Time,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	appointment, err := s.db.GetAppointment(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	syncResult := s.sync.SyncAppointment(id, appointment)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"appointment": appointment,
		"sync":        syncResult,
	})
}

func (s *Server) handleConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	appointment, err := s.db.GetAppointment(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if appointment.Status == database.StatusCancelled {
		respondError(w, http.StatusBadRequest, "cannot confirm a cancelled appointment")
		return
	}

	if err := s.db.UpdateAppointmentStatus(id, database.StatusConfirmed); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	appointment, err = s.db.GetAppointment(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	syncResult := s.sync.SyncAppointment(id, appointment)
	notifyResult := s.notifyCustomer(r, notify.EventAppointmentConfirmed, appointment,
		notify.AppointmentConfirmedMessage(appointment))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"appointment":  appointment,
		"sync":         syncResult,
		"notification": notifyResult,
	})
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	appointment, err := s.db.GetAppointment(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.db.UpdateAppointmentStatus(id, database.StatusCancelled); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	removeResult := s.sync.RemoveAppointmentSync(appointment.RemoteEventID)

	appointment, err = s.db.GetAppointment(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"appointment": appointment,
		"sync":        removeResult,
	})
}

func (s *Server) handleCompleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	appointment, err := s.db.GetAppointment(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.db.UpdateAppointmentStatus(id, database.StatusCompleted); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	appointment, err = s.db.GetAppointment(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	completedNotify := s.notifyCustomer(r, notify.EventServiceCompleted, appointment,
		notify.ServiceCompletedMessage(appointment))
	reviewNotify := s.notifyCustomer(r, notify.EventReviewRequest, appointment,
		notify.ReviewRequestMessage(appointment, s.appURL+"/review"))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"appointment": appointment,
		"notifications": map[string]interface{}{
			"serviceCompleted": completedNotify,
			"reviewRequest":    reviewNotify,
		},
	})
}

func (s *Server) handleInvoiceAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := s.db.GetAppointment(r.PathValue("id"))
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	notifyResult := s.notifyCustomer(r, notify.EventPaymentInvoice, appointment,
		notify.PaymentInvoiceMessage(appointment))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"appointment":  appointment,
		"notification": notifyResult,
	})
}

// Reminders API

func (s *Server) handleReminderSweep(w http.ResponseWriter, r *http.Request) {
	result := s.sweeper.RunReminderSweep(r.Context())
	respondJSON(w, http.StatusOK, result)
}

// Settings API

func (s *Server) handleGetCalendarSyncSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.GetCalendarSyncSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateCalendarSyncSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SyncEnabled bool   `json:"sync_enabled"`
		CalendarID  string `json:"calendar_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SyncEnabled && req.CalendarID == "" {
		respondError(w, http.StatusBadRequest, "calendar_id is required when enabling sync")
		return
	}

	if err := s.db.UpdateCalendarSyncSettings(req.SyncEnabled, req.CalendarID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	settings, err := s.db.GetCalendarSyncSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.GetNotificationSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var req database.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.db.UpdateNotificationSettings(&req); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	settings, err := s.db.GetNotificationSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// Google Calendar API

func (s *Server) handleGCalStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"connected": false,
		"message":   "Not configured",
	}

	if s.gcalClient == nil {
		status["message"] = "Google Calendar client not initialized. Check credentials.json."
		respondJSON(w, http.StatusOK, status)
		return
	}

	if s.gcalClient.IsAuthenticated() {
		status["connected"] = true
		status["message"] = "Connected"
	} else {
		status["message"] = "Not authenticated. Click Connect to authorize."
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGCalListCalendars(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil || !s.gcalClient.IsAuthenticated() {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not connected")
		return
	}

	calendars, err := s.gcalClient.ListCalendars()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, calendars)
}

func (s *Server) handleGCalConnect(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured. Check credentials.json.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"auth_url": s.gcalClient.GetAuthURL(),
		"message":  "Open this URL to authorize Google Calendar access",
	})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.gcalClient == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "No authorization code received")
		return
	}

	if err := s.gcalClient.ExchangeCode(r.Context(), code); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to exchange code: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "connected",
		"message": "Google Calendar connected successfully",
	})
}
