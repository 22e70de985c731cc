package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusInService AppointmentStatus = "in_service"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInService, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment represents one booked service slot.
//
// Date is a calendar date ("2006-01-02") and Time a wall-clock time ("15:04");
// both are interpreted in the salon's configured timezone, never UTC-naively.
// ServiceDuration is kept as the raw string the booking form submitted and is
// validated when a calendar sync actually needs it.
type Appointment struct {
	ID              string            `json:"id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	ServiceName     string            `json:"service_name"`
	ServiceDuration string            `json:"service_duration"`
	ServicePrice    string            `json:"service_price"`
	Date            string            `json:"date"`
	Time            string            `json:"time"`
	Status          AppointmentStatus `json:"status"`
	RemoteEventID   string            `json:"remote_event_id,omitempty"`
	ReminderSentAt  *time.Time        `json:"reminder_sent_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

const appointmentColumns = `
	id, customer_name, customer_phone, service_name, service_duration, service_price,
	date, time, status, COALESCE(remote_event_id, ''), reminder_sent_at, created_at, updated_at`

func scanAppointment(row interface{ Scan(...interface{}) error }) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.CustomerName, &a.CustomerPhone, &a.ServiceName, &a.ServiceDuration,
		&a.ServicePrice, &a.Date, &a.Time, &a.Status, &a.RemoteEventID,
		&a.ReminderSentAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAppointment inserts a new appointment, assigning an ID when absent.
func (d *DB) CreateAppointment(a *Appointment) (*Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !ValidStatus(a.Status) {
		return nil, fmt.Errorf("invalid appointment status: %s", a.Status)
	}

	_, err := d.Exec(`
		INSERT INTO appointments (id, customer_name, customer_phone, service_name, service_duration, service_price, date, time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.CustomerName, a.CustomerPhone, a.ServiceName, a.ServiceDuration, a.ServicePrice, a.Date, a.Time, a.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return d.GetAppointment(a.ID)
}

// GetAppointment retrieves an appointment by ID.
func (d *DB) GetAppointment(id string) (*Appointment, error) {
	a, err := scanAppointment(d.QueryRow(`
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// UpdateAppointmentBooking updates the mutable booking fields of an appointment.
func (d *DB) UpdateAppointmentBooking(id string, a *Appointment) error {
	res, err := d.Exec(`
		UPDATE appointments
		SET customer_name = ?, customer_phone = ?, service_name = ?, service_duration = ?,
		    service_price = ?, date = ?, time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, a.CustomerName, a.CustomerPhone, a.ServiceName, a.ServiceDuration, a.ServicePrice, a.Date, a.Time, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return requireRow(res)
}

// UpdateAppointmentStatus transitions an appointment to the given status.
// Cancellation is a status transition; appointments are never deleted here.
func (d *DB) UpdateAppointmentStatus(id string, status AppointmentStatus) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid appointment status: %s", status)
	}

	res, err := d.Exec(`
		UPDATE appointments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return requireRow(res)
}

// SetRemoteEventID records the linked calendar event after a confirmed remote success.
func (d *DB) SetRemoteEventID(id, eventID string) error {
	res, err := d.Exec(`
		UPDATE appointments SET remote_event_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, eventID, id)
	if err != nil {
		return fmt.Errorf("failed to set remote event id: %w", err)
	}
	return requireRow(res)
}

// ClearRemoteEventIDByEvent unlinks whichever appointment holds the given remote event.
func (d *DB) ClearRemoteEventIDByEvent(eventID string) error {
	_, err := d.Exec(`
		UPDATE appointments SET remote_event_id = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE remote_event_id = ?
	`, eventID)
	if err != nil {
		return fmt.Errorf("failed to clear remote event id: %w", err)
	}
	return nil
}

// MarkReminderSent sets reminder_sent_at only if it is still unset.
// Returns false when another sweep already claimed the reminder.
func (d *DB) MarkReminderSent(id string, at time.Time) (bool, error) {
	res, err := d.Exec(`
		UPDATE appointments SET reminder_sent_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND reminder_sent_at IS NULL
	`, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListConfirmedAt returns confirmed appointments at an exact date and time bucket.
func (d *DB) ListConfirmedAt(date, clock string) ([]Appointment, error) {
	rows, err := d.Query(`
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = ? AND date = ? AND time = ?
		ORDER BY created_at
	`, StatusConfirmed, date, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// ListAppointmentsByDate returns all appointments on a calendar date, ordered by time.
func (d *DB) ListAppointmentsByDate(date string) ([]Appointment, error) {
	rows, err := d.Query(`
		SELECT `+appointmentColumns+`
		FROM appointments WHERE date = ? ORDER BY time
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by date: %w", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
