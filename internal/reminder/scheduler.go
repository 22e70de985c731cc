package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amitsegev/salonbook/internal/database"
	"github.com/amitsegev/salonbook/internal/notify"
	"github.com/amitsegev/salonbook/internal/timeutil"
)

// Reminders go out one hour before the appointment.
const lookahead = time.Hour

// Store is the persistence surface the sweep needs.
type Store interface {
	ListConfirmedAt(date, clock string) ([]database.Appointment, error)
	MarkReminderSent(id string, at time.Time) (bool, error)
}

// Dispatcher sends the reminder messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, eventType notify.EventType, audience notify.Audience, recipients []notify.Recipient, msg notify.Message) notify.DispatchResult
}

// SweepResult aggregates one sweep's outcomes.
type SweepResult struct {
	Success      bool   `json:"success"`
	TotalMatched int    `json:"total_matched"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
	Error        string `json:"error,omitempty"`
}

// Scheduler selects appointments due for a reminder and requests delivery.
// It holds no timer of its own: an external periodic trigger calls
// RunReminderSweep, nominally on every hour-aligned tick.
type Scheduler struct {
	store      Store
	dispatcher Dispatcher
	loc        *time.Location
	now        func() time.Time
}

// NewScheduler creates a reminder scheduler over the given store and dispatcher.
func NewScheduler(store Store, dispatcher Dispatcher, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		loc:        loc,
		now:        time.Now,
	}
}

// RunReminderSweep selects confirmed appointments scheduled exactly at the
// hour bucket of now+1h and dispatches a reminder to each one that has not
// been reminded yet. The match is an exact bucket, not a range: a trigger
// firing off the hour boundary can miss a bucket entirely. Delivery is
// recorded with a compare-and-set on reminder_sent_at, so repeated or
// overlapping sweeps never mark the same appointment twice.
func (s *Scheduler) RunReminderSweep(ctx context.Context) SweepResult {
	target := timeutil.HourBucket(s.now().In(s.loc).Add(lookahead))
	date := target.Format(timeutil.DateLayout)
	clock := target.Format(timeutil.TimeLayout)

	matches, err := s.store.ListConfirmedAt(date, clock)
	if err != nil {
		return SweepResult{Error: fmt.Sprintf("failed to query appointments: %v", err)}
	}

	result := SweepResult{Success: true, TotalMatched: len(matches)}

	var due []database.Appointment
	for _, a := range matches {
		if a.ReminderSentAt != nil {
			continue
		}
		if a.CustomerPhone == "" {
			// Not an error: there is simply nowhere to deliver.
			log.Warn().Str("appointment", a.ID).Msg("skipping reminder, no customer phone")
			continue
		}
		due = append(due, a)
	}

	// Per-appointment dispatches are independent; run them concurrently and
	// wait for all to settle before aggregating.
	delivered := make([]bool, len(due))
	var wg sync.WaitGroup
	for i, a := range due {
		wg.Add(1)
		go func(i int, a database.Appointment) {
			defer wg.Done()
			delivered[i] = s.remind(ctx, a)
		}(i, a)
	}
	wg.Wait()

	for _, ok := range delivered {
		if ok {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}

	log.Info().
		Str("date", date).
		Str("time", clock).
		Int("matched", result.TotalMatched).
		Int("delivered", result.SuccessCount).
		Int("failed", result.FailureCount).
		Msg("reminder sweep finished")
	return result
}

// remind dispatches one reminder and records delivery. A failed dispatch
// leaves the appointment untouched so a later sweep inside the same window
// may retry it.
func (s *Scheduler) remind(ctx context.Context, a database.Appointment) bool {
	res := s.dispatcher.Dispatch(ctx, notify.EventAppointmentReminder, notify.AudienceCustomer,
		[]notify.Recipient{{Channel: "whatsapp", Address: a.CustomerPhone}},
		notify.AppointmentReminderMessage(&a))

	if !res.Success || res.Delivered() == 0 {
		log.Warn().Str("appointment", a.ID).Str("error", res.Error).Msg("reminder not delivered")
		return false
	}

	won, err := s.store.MarkReminderSent(a.ID, s.now())
	if err != nil {
		log.Error().Err(err).Str("appointment", a.ID).Msg("failed to record reminder delivery")
		return false
	}
	if !won {
		// A concurrent sweep already recorded it; the reminder went out either way.
		log.Debug().Str("appointment", a.ID).Msg("reminder already recorded by another sweep")
	}
	return true
}
