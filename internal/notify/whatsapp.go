package notify

import (
	"context"
	"fmt"
)

// TextSender is the outbound messaging primitive used for the customer channel.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) error
	IsLoggedIn() bool
}

// WhatsAppNotifier delivers customer messages over WhatsApp.
type WhatsAppNotifier struct {
	client TextSender
}

// NewWhatsAppNotifier creates a WhatsApp notifier over the given client.
func NewWhatsAppNotifier(client TextSender) *WhatsAppNotifier {
	return &WhatsAppNotifier{client: client}
}

// Name returns the channel name
func (w *WhatsAppNotifier) Name() string {
	return "whatsapp"
}

// IsConfigured returns true when a paired WhatsApp session exists
func (w *WhatsAppNotifier) IsConfigured() bool {
	return w.client != nil && w.client.IsLoggedIn()
}

// Send delivers the message as a single text, bolding the subject line.
func (w *WhatsAppNotifier) Send(ctx context.Context, recipient string, msg Message) error {
	if recipient == "" {
		return fmt.Errorf("no recipient specified")
	}

	text := msg.Body
	if msg.Subject != "" {
		text = "*" + msg.Subject + "*\n\n" + msg.Body
	}

	return w.client.SendText(ctx, recipient, text)
}
