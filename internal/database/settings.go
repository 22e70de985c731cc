package database

import (
	"database/sql"
	"fmt"
	"time"
)

// CalendarSyncSettings represents the singleton calendar sync configuration.
// Sync disabled or a missing calendar ID makes syncing a no-op, not an error.
type CalendarSyncSettings struct {
	SyncEnabled bool      `json:"sync_enabled"`
	CalendarID  string    `json:"calendar_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetCalendarSyncSettings retrieves the calendar sync settings, inserting the
// default (disabled) row on first read.
func (d *DB) GetCalendarSyncSettings() (*CalendarSyncSettings, error) {
	var s CalendarSyncSettings
	err := d.QueryRow(`
		SELECT sync_enabled, calendar_id, updated_at FROM calendar_sync_settings WHERE id = 1
	`).Scan(&s.SyncEnabled, &s.CalendarID, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		_, err = d.Exec(`INSERT INTO calendar_sync_settings (id, sync_enabled, calendar_id) VALUES (1, 0, '')`)
		if err != nil {
			return nil, fmt.Errorf("failed to create default calendar sync settings: %w", err)
		}
		return &CalendarSyncSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar sync settings: %w", err)
	}
	return &s, nil
}

// UpdateCalendarSyncSettings updates the calendar sync settings.
func (d *DB) UpdateCalendarSyncSettings(enabled bool, calendarID string) error {
	if _, err := d.GetCalendarSyncSettings(); err != nil {
		return fmt.Errorf("failed to ensure calendar sync settings exist: %w", err)
	}

	_, err := d.Exec(`
		UPDATE calendar_sync_settings
		SET sync_enabled = ?, calendar_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, enabled, calendarID)
	if err != nil {
		return fmt.Errorf("failed to update calendar sync settings: %w", err)
	}
	return nil
}

// NotificationSettings represents the singleton notification configuration.
// A message is eligible for delivery only when the global flag, its audience
// flag, and its event-type flag are all enabled.
type NotificationSettings struct {
	Enabled         bool `json:"enabled"`
	CustomerEnabled bool `json:"customer_enabled"`
	AdminEnabled    bool `json:"admin_enabled"`

	NewBooking           bool `json:"new_booking"`
	AppointmentConfirmed bool `json:"appointment_confirmed"`
	PaymentInvoice       bool `json:"payment_invoice"`
	ServiceCompleted     bool `json:"service_completed"`
	ReviewRequest        bool `json:"review_request"`
	AppointmentReminder  bool `json:"appointment_reminder"`

	UpdatedAt time.Time `json:"updated_at"`
}

// EventEnabled returns the per-type flag for the given event type name.
// Unknown event types are disabled.
func (s *NotificationSettings) EventEnabled(eventType string) bool {
	switch eventType {
	case "newBooking":
		return s.NewBooking
	case "appointmentConfirmed":
		return s.AppointmentConfirmed
	case "paymentInvoice":
		return s.PaymentInvoice
	case "serviceCompleted":
		return s.ServiceCompleted
	case "reviewRequest":
		return s.ReviewRequest
	case "appointmentReminder":
		return s.AppointmentReminder
	}
	return false
}

// AudienceEnabled returns the flag for the given audience name.
func (s *NotificationSettings) AudienceEnabled(audience string) bool {
	switch audience {
	case "customer":
		return s.CustomerEnabled
	case "admin":
		return s.AdminEnabled
	}
	return false
}

// GetNotificationSettings retrieves the notification settings, inserting the
// default (everything enabled) row on first read.
func (d *DB) GetNotificationSettings() (*NotificationSettings, error) {
	var s NotificationSettings
	err := d.QueryRow(`
		SELECT enabled, customer_enabled, admin_enabled,
		       new_booking, appointment_confirmed, payment_invoice,
		       service_completed, review_request, appointment_reminder,
		       updated_at
		FROM notification_settings WHERE id = 1
	`).Scan(
		&s.Enabled, &s.CustomerEnabled, &s.AdminEnabled,
		&s.NewBooking, &s.AppointmentConfirmed, &s.PaymentInvoice,
		&s.ServiceCompleted, &s.ReviewRequest, &s.AppointmentReminder,
		&s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		_, err = d.Exec(`INSERT INTO notification_settings (id) VALUES (1)`)
		if err != nil {
			return nil, fmt.Errorf("failed to create default notification settings: %w", err)
		}
		return &NotificationSettings{
			Enabled: true, CustomerEnabled: true, AdminEnabled: true,
			NewBooking: true, AppointmentConfirmed: true, PaymentInvoice: true,
			ServiceCompleted: true, ReviewRequest: true, AppointmentReminder: true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification settings: %w", err)
	}
	return &s, nil
}

// UpdateNotificationSettings replaces the notification settings.
func (d *DB) UpdateNotificationSettings(s *NotificationSettings) error {
	if _, err := d.GetNotificationSettings(); err != nil {
		return fmt.Errorf("failed to ensure notification settings exist: %w", err)
	}

	_, err := d.Exec(`
		UPDATE notification_settings
		SET enabled = ?, customer_enabled = ?, admin_enabled = ?,
		    new_booking = ?, appointment_confirmed = ?, payment_invoice = ?,
		    service_completed = ?, review_request = ?, appointment_reminder = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, s.Enabled, s.CustomerEnabled, s.AdminEnabled,
		s.NewBooking, s.AppointmentConfirmed, s.PaymentInvoice,
		s.ServiceCompleted, s.ReviewRequest, s.AppointmentReminder)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	return nil
}
