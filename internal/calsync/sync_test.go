package calsync

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amitsegev/salonbook/internal/database"
	"github.com/amitsegev/salonbook/internal/gcal"
)

// MockCalendar for testing
type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) CreateEvent(calendarID string, input gcal.EventInput) (string, error) {
	args := m.Called(calendarID, input)
	return args.String(0), args.Error(1)
}

func (m *MockCalendar) UpdateEvent(calendarID, eventID string, input gcal.EventInput) error {
	args := m.Called(calendarID, eventID, input)
	return args.Error(0)
}

func (m *MockCalendar) DeleteEvent(calendarID, eventID string) error {
	args := m.Called(calendarID, eventID)
	return args.Error(0)
}

func enableSync(t *testing.T, db *database.DB) {
	t.Helper()
	require.NoError(t, db.UpdateCalendarSyncSettings(true, "salon-calendar"))
}

func TestSyncAppointment_DisabledIsNoOp(t *testing.T) {
	db := database.NewTestDB(t)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)

	result := m.SyncAppointment(a.ID, a)

	assert.True(t, result.Success)
	assert.Empty(t, result.EventID)
	cal.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)

	got, err := db.GetAppointment(a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteEventID)
}

func TestSyncAppointment_MissingCalendarIDIsNoOp(t *testing.T) {
	db := database.NewTestDB(t)
	require.NoError(t, db.UpdateCalendarSyncSettings(true, ""))
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)

	result := m.SyncAppointment(a.ID, a)

	assert.True(t, result.Success)
	cal.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestSyncAppointment_NoCalendarClient(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	m := NewManager(db, nil, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)

	result := m.SyncAppointment(a.ID, a)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no calendar client")

	remove := m.RemoveAppointmentSync("evt-1")
	assert.False(t, remove.Success)
}

func TestSyncAppointment_CreatePersistsEventID(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)

	cal.On("CreateEvent", "salon-calendar", mock.MatchedBy(func(input gcal.EventInput) bool {
		start := time.Date(2025, 6, 14, 14, 0, 0, 0, time.UTC)
		return input.StartTime.Equal(start) && input.EndTime.Equal(start.Add(45*time.Minute))
	})).Return("evt-1", nil).Once()

	result := m.SyncAppointment(a.ID, a)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "evt-1", result.EventID)

	got, err := db.GetAppointment(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", got.RemoteEventID)
	cal.AssertExpectations(t)
}

func TestSyncAppointment_IdempotentCreate(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)

	cal.On("CreateEvent", "salon-calendar", mock.Anything).Return("evt-1", nil).Once()
	cal.On("UpdateEvent", "salon-calendar", "evt-1", mock.Anything).Return(nil)

	first := m.SyncAppointment(a.ID, a)
	second := m.SyncAppointment(a.ID, a)

	require.True(t, first.Success, first.Error)
	require.True(t, second.Success, second.Error)
	// Re-running with identical data converges to one remote event.
	assert.Equal(t, first.EventID, second.EventID)
	cal.AssertNumberOfCalls(t, "CreateEvent", 1)
	cal.AssertNumberOfCalls(t, "UpdateEvent", 1)
}

func TestSyncAppointment_UpdatesExistingEvent(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)
	require.NoError(t, db.SetRemoteEventID(a.ID, "evt-existing"))

	cal.On("UpdateEvent", "salon-calendar", "evt-existing", mock.Anything).Return(nil).Once()

	result := m.SyncAppointment(a.ID, a)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "evt-existing", result.EventID)
	cal.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestSyncAppointment_InvalidDuration(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)
	require.NoError(t, db.SetRemoteEventID(a.ID, "evt-keep"))

	for _, duration := range []string{"abc", "-30", "0", ""} {
		a.ServiceDuration = duration
		result := m.SyncAppointment(a.ID, a)
		assert.False(t, result.Success, "duration %q should fail validation", duration)
		assert.Contains(t, result.Error, "duration")
	}

	// Validation failure leaves the existing link untouched.
	got, err := db.GetAppointment(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-keep", got.RemoteEventID)
	cal.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	cal.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncAppointment_RemoteErrorLeavesStateUnchanged(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)

	cal.On("CreateEvent", "salon-calendar", mock.Anything).Return("", fmt.Errorf("quota exceeded"))

	result := m.SyncAppointment(a.ID, a)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "quota exceeded")

	got, err := db.GetAppointment(a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteEventID)
}

func TestRemoveAppointmentSync_IdempotentDelete(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	a := database.CreateTestAppointment(t, db, nil)
	require.NoError(t, db.SetRemoteEventID(a.ID, "evt-1"))

	cal.On("DeleteEvent", "salon-calendar", "evt-1").Return(nil).Once()
	cal.On("DeleteEvent", "salon-calendar", "evt-1").Return(gcal.ErrEventNotFound)

	first := m.RemoveAppointmentSync("evt-1")
	second := m.RemoveAppointmentSync("evt-1")

	// Deleting twice is not an error: the remote resource being gone is success.
	assert.True(t, first.Success, first.Error)
	assert.True(t, second.Success, second.Error)

	got, err := db.GetAppointment(a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteEventID)
}

func TestRemoveAppointmentSync_NoOpCases(t *testing.T) {
	cal := &MockCalendar{}

	t.Run("sync disabled", func(t *testing.T) {
		db := database.NewTestDB(t)
		m := NewManager(db, cal, time.UTC)
		assert.True(t, m.RemoveAppointmentSync("evt-1").Success)
	})

	t.Run("empty event id", func(t *testing.T) {
		db := database.NewTestDB(t)
		enableSync(t, db)
		m := NewManager(db, cal, time.UTC)
		assert.True(t, m.RemoveAppointmentSync("").Success)
	})

	cal.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything)
}

func TestRemoveAppointmentSync_RemoteError(t *testing.T) {
	db := database.NewTestDB(t)
	enableSync(t, db)
	cal := &MockCalendar{}
	m := NewManager(db, cal, time.UTC)

	cal.On("DeleteEvent", "salon-calendar", "evt-1").Return(fmt.Errorf("backend unavailable"))

	result := m.RemoveAppointmentSync("evt-1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "backend unavailable")
}
