package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amitsegev/salonbook/internal/database"
)

// MockNotifier for testing
type MockNotifier struct {
	mock.Mock
	name string
}

func (m *MockNotifier) Send(ctx context.Context, recipient string, msg Message) error {
	args := m.Called(ctx, recipient, msg)
	return args.Error(0)
}

func (m *MockNotifier) Name() string {
	return m.name
}

func (m *MockNotifier) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

type staticSettings struct {
	settings *database.NotificationSettings
	err      error
}

func (s *staticSettings) GetNotificationSettings() (*database.NotificationSettings, error) {
	return s.settings, s.err
}

func allEnabledSettings() *database.NotificationSettings {
	return &database.NotificationSettings{
		Enabled: true, CustomerEnabled: true, AdminEnabled: true,
		NewBooking: true, AppointmentConfirmed: true, PaymentInvoice: true,
		ServiceCompleted: true, ReviewRequest: true, AppointmentReminder: true,
	}
}

func TestDispatch_GateConjunction(t *testing.T) {
	tests := []struct {
		name        string
		global      bool
		audience    bool
		eventType   bool
		wantAttempt bool
	}{
		{"all enabled", true, true, true, true},
		{"type disabled", true, true, false, false},
		{"audience disabled", true, false, true, false},
		{"global disabled", false, true, true, false},
		{"audience and type disabled", true, false, false, false},
		{"global and type disabled", false, true, false, false},
		{"global and audience disabled", false, false, true, false},
		{"all disabled", false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := allEnabledSettings()
			settings.Enabled = tt.global
			settings.CustomerEnabled = tt.audience
			settings.AppointmentConfirmed = tt.eventType

			notifier := &MockNotifier{name: "whatsapp"}
			if tt.wantAttempt {
				notifier.On("IsConfigured").Return(true)
				notifier.On("Send", mock.Anything, "972501234567", mock.Anything).Return(nil)
			}

			d := NewDispatcher(&staticSettings{settings: settings}, notifier)
			result := d.Dispatch(context.Background(), EventAppointmentConfirmed, AudienceCustomer,
				[]Recipient{{Channel: "whatsapp", Address: "972501234567"}}, Message{Body: "hi"})

			if tt.wantAttempt {
				assert.True(t, result.Success)
				assert.False(t, result.Suppressed)
				assert.Equal(t, 1, result.Delivered())
			} else {
				assert.False(t, result.Success)
				assert.True(t, result.Suppressed)
				assert.Equal(t, ErrSuppressed.Error(), result.Error)
				notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDispatch_FanOutIsolation(t *testing.T) {
	notifier := &MockNotifier{name: "whatsapp"}
	notifier.On("IsConfigured").Return(true)
	notifier.On("Send", mock.Anything, "111", mock.Anything).Return(nil)
	notifier.On("Send", mock.Anything, "222", mock.Anything).Return(fmt.Errorf("recipient unreachable"))
	notifier.On("Send", mock.Anything, "333", mock.Anything).Return(nil)

	d := NewDispatcher(&staticSettings{settings: allEnabledSettings()}, notifier)
	result := d.Dispatch(context.Background(), EventNewBooking, AudienceCustomer, []Recipient{
		{Channel: "whatsapp", Address: "111"},
		{Channel: "whatsapp", Address: "222"},
		{Channel: "whatsapp", Address: "333"},
	}, Message{Body: "hello"})

	// The gate passed, so the dispatch itself succeeded even with one failure.
	require.True(t, result.Success)
	require.Len(t, result.Recipients, 3)
	assert.True(t, result.Recipients[0].Success)
	assert.False(t, result.Recipients[1].Success)
	assert.Contains(t, result.Recipients[1].Error, "recipient unreachable")
	assert.True(t, result.Recipients[2].Success)
	assert.Equal(t, 2, result.Delivered())
}

func TestDispatch_MixedChannels(t *testing.T) {
	wa := &MockNotifier{name: "whatsapp"}
	wa.On("IsConfigured").Return(true)
	wa.On("Send", mock.Anything, "972501234567", mock.Anything).Return(nil)

	email := &MockNotifier{name: "email"}
	email.On("IsConfigured").Return(true)
	email.On("Send", mock.Anything, "owner@salon.example", mock.Anything).Return(nil)

	d := NewDispatcher(&staticSettings{settings: allEnabledSettings()}, wa, email)
	result := d.Dispatch(context.Background(), EventNewBooking, AudienceAdmin, []Recipient{
		{Channel: "whatsapp", Address: "972501234567"},
		{Channel: "email", Address: "owner@salon.example"},
	}, Message{Subject: "New booking", Body: "details"})

	require.True(t, result.Success)
	assert.Equal(t, 2, result.Delivered())
	wa.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestDispatch_SettingsLoadFailure(t *testing.T) {
	notifier := &MockNotifier{name: "whatsapp"}

	d := NewDispatcher(&staticSettings{err: fmt.Errorf("db closed")}, notifier)
	result := d.Dispatch(context.Background(), EventNewBooking, AudienceCustomer,
		[]Recipient{{Channel: "whatsapp", Address: "111"}}, Message{})

	assert.False(t, result.Success)
	assert.False(t, result.Suppressed)
	assert.Contains(t, result.Error, "db closed")
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_UnknownChannel(t *testing.T) {
	d := NewDispatcher(&staticSettings{settings: allEnabledSettings()})
	result := d.Dispatch(context.Background(), EventNewBooking, AudienceCustomer,
		[]Recipient{{Channel: "sms", Address: "111"}}, Message{})

	require.True(t, result.Success)
	require.Len(t, result.Recipients, 1)
	assert.False(t, result.Recipients[0].Success)
	assert.Contains(t, result.Recipients[0].Error, "no notifier registered")
}

func TestDispatch_UnconfiguredChannel(t *testing.T) {
	notifier := &MockNotifier{name: "telegram"}
	notifier.On("IsConfigured").Return(false)

	d := NewDispatcher(&staticSettings{settings: allEnabledSettings()}, notifier)
	result := d.Dispatch(context.Background(), EventNewBooking, AudienceAdmin,
		[]Recipient{{Channel: "telegram", Address: "salon_admin"}}, Message{})

	require.True(t, result.Success)
	require.Len(t, result.Recipients, 1)
	assert.False(t, result.Recipients[0].Success)
	assert.Contains(t, result.Recipients[0].Error, "not configured")
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_MissingAddress(t *testing.T) {
	notifier := &MockNotifier{name: "whatsapp"}
	notifier.On("IsConfigured").Return(true)

	d := NewDispatcher(&staticSettings{settings: allEnabledSettings()}, notifier)
	result := d.Dispatch(context.Background(), EventAppointmentReminder, AudienceCustomer,
		[]Recipient{{Channel: "whatsapp"}}, Message{})

	require.True(t, result.Success)
	assert.Equal(t, 0, result.Delivered())
	assert.Contains(t, result.Recipients[0].Error, "no recipient address")
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_LoadsSettingsFromDB(t *testing.T) {
	db := database.NewTestDB(t)

	s, err := db.GetNotificationSettings()
	require.NoError(t, err)
	s.ReviewRequest = false
	require.NoError(t, db.UpdateNotificationSettings(s))

	notifier := &MockNotifier{name: "whatsapp"}
	d := NewDispatcher(db, notifier)

	result := d.Dispatch(context.Background(), EventReviewRequest, AudienceCustomer,
		[]Recipient{{Channel: "whatsapp", Address: "111"}}, Message{})

	assert.True(t, result.Suppressed)
}
