package notify

import (
	"fmt"

	"github.com/amitsegev/salonbook/internal/database"
)

// Message builders for the booking events. Callers own the payload; the
// dispatcher and channels never inspect it.

func NewBookingMessage(a *database.Appointment) Message {
	return Message{
		Subject: "Booking received",
		Body: fmt.Sprintf("Hi %s, we received your booking for %s on %s at %s. We'll confirm it shortly.",
			a.CustomerName, a.ServiceName, a.Date, a.Time),
	}
}

func AdminNewBookingMessage(a *database.Appointment) Message {
	return Message{
		Subject: fmt.Sprintf("New booking: %s", a.ServiceName),
		Body: fmt.Sprintf("%s (%s) booked %s on %s at %s. Duration %s min, price %s.",
			a.CustomerName, a.CustomerPhone, a.ServiceName, a.Date, a.Time, a.ServiceDuration, a.ServicePrice),
	}
}

func AppointmentConfirmedMessage(a *database.Appointment) Message {
	return Message{
		Subject: "Appointment confirmed",
		Body: fmt.Sprintf("Hi %s, your %s appointment is confirmed for %s at %s. See you then!",
			a.CustomerName, a.ServiceName, a.Date, a.Time),
	}
}

func PaymentInvoiceMessage(a *database.Appointment) Message {
	return Message{
		Subject: "Payment request",
		Body: fmt.Sprintf("Hi %s, here is the payment request for your %s on %s: %s. Thank you!",
			a.CustomerName, a.ServiceName, a.Date, a.ServicePrice),
	}
}

func ServiceCompletedMessage(a *database.Appointment) Message {
	return Message{
		Subject: "Thanks for visiting",
		Body: fmt.Sprintf("Hi %s, thanks for coming in for your %s today. We hope you love the result!",
			a.CustomerName, a.ServiceName),
	}
}

func ReviewRequestMessage(a *database.Appointment, reviewURL string) Message {
	body := fmt.Sprintf("Hi %s, we'd love to hear how your %s went.", a.CustomerName, a.ServiceName)
	if reviewURL != "" {
		body += " Leave us a review: " + reviewURL
	}
	return Message{
		Subject: "How did we do?",
		Body:    body,
	}
}

func AppointmentReminderMessage(a *database.Appointment) Message {
	return Message{
		Subject: "Appointment reminder",
		Body: fmt.Sprintf("Hi %s, a reminder for your %s appointment today at %s. See you soon!",
			a.CustomerName, a.ServiceName, a.Time),
	}
}
