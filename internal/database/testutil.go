package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database for testing.
// The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateTestAppointment inserts an appointment with sensible defaults,
// applying any overrides from the template.
func CreateTestAppointment(t *testing.T, db *DB, template *Appointment) *Appointment {
	t.Helper()

	a := &Appointment{
		CustomerName:    "Dana Levi",
		CustomerPhone:   "972501234567",
		ServiceName:     "Haircut",
		ServiceDuration: "45",
		ServicePrice:    "120",
		Date:            "2025-06-14",
		Time:            "14:00",
		Status:          StatusConfirmed,
	}
	if template != nil {
		if template.ID != "" {
			a.ID = template.ID
		}
		if template.CustomerName != "" {
			a.CustomerName = template.CustomerName
		}
		a.CustomerPhone = template.CustomerPhone
		if template.ServiceName != "" {
			a.ServiceName = template.ServiceName
		}
		if template.ServiceDuration != "" {
			a.ServiceDuration = template.ServiceDuration
		}
		if template.ServicePrice != "" {
			a.ServicePrice = template.ServicePrice
		}
		if template.Date != "" {
			a.Date = template.Date
		}
		if template.Time != "" {
			a.Time = template.Time
		}
		if template.Status != "" {
			a.Status = template.Status
		}
	}

	created, err := db.CreateAppointment(a)
	require.NoError(t, err, "failed to create test appointment")
	return created
}
