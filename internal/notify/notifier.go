package notify

import "context"

// Message is the payload handed to a channel. Assembling the content is the
// caller's responsibility; channels only decide how to render subject+body.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a message to a single recipient address over one channel
type Notifier interface {
	// Send delivers the message to the specified recipient address
	Send(ctx context.Context, recipient string, msg Message) error
	// Name returns the channel name (used to route recipients)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
