package notify

import (
	"context"
	"fmt"
)

// ChatSender is the Telegram send primitive used for the admin channel.
type ChatSender interface {
	SendText(ctx context.Context, chat, text string) error
	IsConnected() bool
}

// TelegramNotifier delivers admin messages to a Telegram chat.
type TelegramNotifier struct {
	client ChatSender
}

// NewTelegramNotifier creates a Telegram notifier over the given client.
func NewTelegramNotifier(client ChatSender) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

// Name returns the channel name
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// IsConfigured returns true when an authorized Telegram session exists
func (t *TelegramNotifier) IsConfigured() bool {
	return t.client != nil && t.client.IsConnected()
}

// Send delivers the message to the recipient chat
func (t *TelegramNotifier) Send(ctx context.Context, recipient string, msg Message) error {
	if recipient == "" {
		return fmt.Errorf("no recipient chat specified")
	}

	text := msg.Body
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + msg.Body
	}

	return t.client.SendText(ctx, recipient, text)
}
