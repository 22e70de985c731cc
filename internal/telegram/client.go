package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog/log"
)

// Client manages the Telegram connection used for admin notifications.
// It relies on a previously authorized session file; the interactive login
// flow is expected to have been completed with an external tool.
type Client struct {
	apiID       int
	apiHash     string
	sessionPath string
	client      *telegram.Client
	api         *tg.Client
	connected   bool
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// ClientConfig holds configuration for the Telegram client
type ClientConfig struct {
	APIID       int
	APIHash     string
	SessionPath string
}

// NewClient creates a new Telegram client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, fmt.Errorf("Telegram API ID and API Hash are required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		apiID:       cfg.APIID,
		apiHash:     cfg.APIHash,
		sessionPath: cfg.SessionPath,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Connect initializes and connects the Telegram client
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.api != nil {
		c.mu.Unlock()
		return nil
	}

	sessionStorage := &FileSessionStorage{Path: c.sessionPath}

	client := telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: sessionStorage,
	})
	c.client = client
	c.mu.Unlock()

	go func() {
		if err := client.Run(c.ctx, func(ctx context.Context) error {
			c.mu.Lock()
			c.api = client.API()
			c.mu.Unlock()

			status, err := client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get auth status: %w", err)
			}

			c.mu.Lock()
			c.connected = status.Authorized
			c.mu.Unlock()

			if status.Authorized {
				log.Info().Msg("telegram: authorized")
			} else {
				log.Warn().Msg("telegram: session not authorized, admin notifications disabled")
			}

			// Block until context is cancelled
			<-ctx.Done()
			return ctx.Err()
		}); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("telegram client error")
		}
	}()

	// Wait for client to initialize with timeout
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("timeout waiting for Telegram client to connect")
		case <-ticker.C:
			c.mu.RLock()
			apiReady := c.api != nil
			c.mu.RUnlock()
			if apiReady {
				return nil
			}
		}
	}
}

// Disconnect closes the Telegram connection
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.connected = false
}

// IsConnected returns whether the client is connected and authorized
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendText sends a text message to the given chat. An empty or "self" chat
// targets the account's Saved Messages; anything else resolves as a username.
func (c *Client) SendText(ctx context.Context, chat, text string) error {
	c.mu.RLock()
	api := c.api
	authorized := c.connected
	c.mu.RUnlock()

	if api == nil {
		return fmt.Errorf("client not connected")
	}
	if !authorized {
		return fmt.Errorf("client not authorized")
	}

	sender := message.NewSender(api)

	chat = strings.TrimPrefix(strings.TrimSpace(chat), "@")
	if chat == "" || chat == "self" {
		if _, err := sender.Self().Text(ctx, text); err != nil {
			return fmt.Errorf("failed to send to saved messages: %w", err)
		}
		return nil
	}

	if _, err := sender.Resolve(chat).Text(ctx, text); err != nil {
		return fmt.Errorf("failed to send to %s: %w", chat, err)
	}
	return nil
}
