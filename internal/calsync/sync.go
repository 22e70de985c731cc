package calsync

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amitsegev/salonbook/internal/database"
	"github.com/amitsegev/salonbook/internal/gcal"
	"github.com/amitsegev/salonbook/internal/timeutil"
)

// CalendarAPI is the remote calendar surface the sync manager drives.
// Implemented by *gcal.Client.
type CalendarAPI interface {
	CreateEvent(calendarID string, input gcal.EventInput) (string, error)
	UpdateEvent(calendarID, eventID string, input gcal.EventInput) error
	DeleteEvent(calendarID, eventID string) error
}

// Store is the persistence surface the sync manager needs.
type Store interface {
	GetCalendarSyncSettings() (*database.CalendarSyncSettings, error)
	GetAppointment(id string) (*database.Appointment, error)
	SetRemoteEventID(id, eventID string) error
	ClearRemoteEventIDByEvent(eventID string) error
}

// SyncResult reports the outcome of a sync operation.
type SyncResult struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RemoveResult reports the outcome of removing a synced event.
type RemoveResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Manager maps one appointment to at most one remote calendar event.
// Errors from the remote API are returned as structured failures and never
// propagate past this boundary; retrying is the caller's decision.
type Manager struct {
	store    Store
	calendar CalendarAPI
	loc      *time.Location
}

// NewManager creates a sync manager. All appointment dates and times are
// interpreted in loc.
func NewManager(store Store, calendar CalendarAPI, loc *time.Location) *Manager {
	return &Manager{
		store:    store,
		calendar: calendar,
		loc:      loc,
	}
}

// SyncAppointment creates or updates the remote event for an appointment.
// Disabled or unconfigured sync is a successful no-op. The remote event id is
// persisted only after the remote call succeeds, so re-running with the same
// data converges on a single remote event.
func (m *Manager) SyncAppointment(appointmentID string, appt *database.Appointment) SyncResult {
	settings, err := m.store.GetCalendarSyncSettings()
	if err != nil {
		return SyncResult{Error: fmt.Sprintf("failed to load calendar sync settings: %v", err)}
	}
	if !settings.SyncEnabled || settings.CalendarID == "" {
		log.Debug().Str("appointment", appointmentID).Msg("calendar sync disabled, skipping")
		return SyncResult{Success: true}
	}
	if m.calendar == nil {
		return SyncResult{Error: "calendar sync is enabled but no calendar client is configured"}
	}

	durationMin, err := strconv.Atoi(appt.ServiceDuration)
	if err != nil || durationMin <= 0 {
		return SyncResult{Error: fmt.Sprintf("invalid service duration %q: must be a positive number of minutes", appt.ServiceDuration)}
	}

	start, err := timeutil.CombineDateTime(appt.Date, appt.Time, m.loc)
	if err != nil {
		return SyncResult{Error: fmt.Sprintf("invalid appointment schedule: %v", err)}
	}
	end := start.Add(time.Duration(durationMin) * time.Minute)

	input := buildEventInput(appt, start, end)

	eventID, err := m.currentRemoteEventID(appointmentID, appt)
	if err != nil {
		return SyncResult{Error: fmt.Sprintf("failed to read appointment: %v", err)}
	}

	if eventID != "" {
		if err := m.calendar.UpdateEvent(settings.CalendarID, eventID, input); err != nil {
			return SyncResult{Error: fmt.Sprintf("failed to update calendar event: %v", err)}
		}
		log.Info().Str("appointment", appointmentID).Str("event", eventID).Msg("calendar event updated")
		return SyncResult{Success: true, EventID: eventID}
	}

	createdID, err := m.calendar.CreateEvent(settings.CalendarID, input)
	if err != nil {
		return SyncResult{Error: fmt.Sprintf("failed to create calendar event: %v", err)}
	}
	if err := m.store.SetRemoteEventID(appointmentID, createdID); err != nil {
		return SyncResult{Error: fmt.Sprintf("calendar event %s created but linking it failed: %v", createdID, err)}
	}

	log.Info().Str("appointment", appointmentID).Str("event", createdID).Msg("calendar event created")
	return SyncResult{Success: true, EventID: createdID}
}

// RemoveAppointmentSync deletes the remote event. Nothing to delete (sync
// disabled, no calendar, no event id, or the remote resource already gone)
// is success, so deleting twice is not an error.
func (m *Manager) RemoveAppointmentSync(remoteEventID string) RemoveResult {
	settings, err := m.store.GetCalendarSyncSettings()
	if err != nil {
		return RemoveResult{Error: fmt.Sprintf("failed to load calendar sync settings: %v", err)}
	}
	if !settings.SyncEnabled || settings.CalendarID == "" || remoteEventID == "" {
		return RemoveResult{Success: true}
	}
	if m.calendar == nil {
		return RemoveResult{Error: "calendar sync is enabled but no calendar client is configured"}
	}

	if err := m.calendar.DeleteEvent(settings.CalendarID, remoteEventID); err != nil {
		if !gcal.IsEventNotFound(err) {
			return RemoveResult{Error: fmt.Sprintf("failed to delete calendar event: %v", err)}
		}
		log.Debug().Str("event", remoteEventID).Msg("calendar event already gone")
	}

	if err := m.store.ClearRemoteEventIDByEvent(remoteEventID); err != nil {
		return RemoveResult{Error: fmt.Sprintf("failed to unlink calendar event: %v", err)}
	}

	log.Info().Str("event", remoteEventID).Msg("calendar event removed")
	return RemoveResult{Success: true}
}

// currentRemoteEventID prefers the persisted link over the caller's snapshot,
// which may be stale.
func (m *Manager) currentRemoteEventID(appointmentID string, appt *database.Appointment) (string, error) {
	stored, err := m.store.GetAppointment(appointmentID)
	if err == database.ErrNotFound {
		return appt.RemoteEventID, nil
	}
	if err != nil {
		return "", err
	}
	return stored.RemoteEventID, nil
}

func buildEventInput(appt *database.Appointment, start, end time.Time) gcal.EventInput {
	return gcal.EventInput{
		Summary: fmt.Sprintf("%s - %s", appt.ServiceName, appt.CustomerName),
		Description: fmt.Sprintf("Customer: %s (%s)\nService: %s\nPrice: %s\nStatus: %s",
			appt.CustomerName, appt.CustomerPhone, appt.ServiceName, appt.ServicePrice, appt.Status),
		StartTime: start,
		EndTime:   end,
	}
}
