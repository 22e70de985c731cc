package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/amitsegev/salonbook/internal/database"
)

// EventType names a notification-worthy booking event. The names double as
// the per-type flag keys in NotificationSettings.
type EventType string

const (
	EventNewBooking           EventType = "newBooking"
	EventAppointmentConfirmed EventType = "appointmentConfirmed"
	EventPaymentInvoice       EventType = "paymentInvoice"
	EventServiceCompleted     EventType = "serviceCompleted"
	EventReviewRequest        EventType = "reviewRequest"
	EventAppointmentReminder  EventType = "appointmentReminder"
)

// Audience distinguishes customer-facing from admin-facing messages.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceAdmin    Audience = "admin"
)

// ErrSuppressed marks a deliberate no-send decided by configuration,
// distinct from a delivery error.
var ErrSuppressed = errors.New("suppressed by notification settings")

// Recipient routes one address to a delivery channel by channel name.
type Recipient struct {
	Channel string `json:"channel"`
	Address string `json:"address"`
}

// DispatchOutcome records one (recipient, message) delivery attempt.
type DispatchOutcome struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// DispatchResult is the aggregate returned to the caller. Success reports
// whether the gate passed and the fan-out ran; individual deliveries may
// still have failed and are listed per recipient.
type DispatchResult struct {
	Success    bool              `json:"success"`
	Suppressed bool              `json:"suppressed,omitempty"`
	Error      string            `json:"error,omitempty"`
	Recipients []DispatchOutcome `json:"recipients,omitempty"`
}

// Delivered returns how many recipients were actually reached.
func (r DispatchResult) Delivered() int {
	n := 0
	for _, o := range r.Recipients {
		if o.Success {
			n++
		}
	}
	return n
}

// SettingsSource loads the notification settings at the start of a dispatch.
type SettingsSource interface {
	GetNotificationSettings() (*database.NotificationSettings, error)
}

// Dispatcher gates outbound messages on the layered notification settings and
// fans delivery out to the registered channels.
type Dispatcher struct {
	settings  SettingsSource
	notifiers map[string]Notifier
}

// NewDispatcher creates a dispatcher over the given channels. Nil notifiers
// are skipped so optional channels can be passed straight through.
func NewDispatcher(settings SettingsSource, notifiers ...Notifier) *Dispatcher {
	byName := make(map[string]Notifier, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			byName[n.Name()] = n
		}
	}
	return &Dispatcher{
		settings:  settings,
		notifiers: byName,
	}
}

// Dispatch checks the enable gate for the event, then attempts delivery to
// every recipient concurrently. One recipient's failure never aborts the
// others; the caller inspects the outcome list to see who was reached.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType EventType, audience Audience, recipients []Recipient, msg Message) DispatchResult {
	settings, err := d.settings.GetNotificationSettings()
	if err != nil {
		return DispatchResult{Error: fmt.Sprintf("failed to load notification settings: %v", err)}
	}

	// The gate is strictly conjunctive: global AND audience AND event type.
	if !settings.Enabled || !settings.AudienceEnabled(string(audience)) || !settings.EventEnabled(string(eventType)) {
		log.Debug().
			Str("event", string(eventType)).
			Str("audience", string(audience)).
			Msg("notification suppressed by settings")
		return DispatchResult{Suppressed: true, Error: ErrSuppressed.Error()}
	}

	outcomes := make([]DispatchOutcome, len(recipients))
	var wg sync.WaitGroup
	for i, r := range recipients {
		wg.Add(1)
		go func(i int, r Recipient) {
			defer wg.Done()
			outcomes[i] = d.deliver(ctx, r, msg)
		}(i, r)
	}
	wg.Wait()

	result := DispatchResult{Success: true, Recipients: outcomes}
	log.Info().
		Str("event", string(eventType)).
		Str("audience", string(audience)).
		Int("recipients", len(recipients)).
		Int("delivered", result.Delivered()).
		Msg("notification dispatched")
	return result
}

func (d *Dispatcher) deliver(ctx context.Context, r Recipient, msg Message) DispatchOutcome {
	outcome := DispatchOutcome{Channel: r.Channel, Recipient: r.Address}

	notifier, ok := d.notifiers[r.Channel]
	if !ok {
		outcome.Error = fmt.Sprintf("no notifier registered for channel %q", r.Channel)
		return outcome
	}
	if !notifier.IsConfigured() {
		outcome.Error = fmt.Sprintf("channel %q is not configured", r.Channel)
		return outcome
	}
	if r.Address == "" {
		outcome.Error = "no recipient address"
		return outcome
	}

	if err := notifier.Send(ctx, r.Address, msg); err != nil {
		log.Warn().Err(err).Str("channel", r.Channel).Str("recipient", r.Address).Msg("delivery failed")
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = true
	return outcome
}
