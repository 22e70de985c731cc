package whatsapp

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// Client wraps the whatsmeow client used to deliver customer messages.
type Client struct {
	WAClient  *whatsmeow.Client
	container *sqlstore.Container
}

func NewClient(dbPath string) (*Client, error) {
	dbLog := waLog.Stdout("Database", "WARN", true)
	clientLog := waLog.Stdout("Client", "WARN", true)

	container, err := sqlstore.New(context.Background(), "sqlite3", "file:"+dbPath+"?_foreign_keys=on", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	return &Client{
		WAClient:  whatsmeow.NewClient(deviceStore, clientLog),
		container: container,
	}, nil
}

// Connect establishes the WhatsApp session. When no device is paired yet, it
// renders a pairing QR code and blocks until pairing succeeds or times out.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsLoggedIn() {
		if err := c.WAClient.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := c.WAClient.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	// Connect triggers QR generation
	if err := c.WAClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for evt := range qrChan {
		switch evt.Event {
		case "code":
			DisplayQR(evt.Code)
			log.Info().Msg("scan the WhatsApp pairing QR code")
		case "success":
			log.Info().Msg("WhatsApp paired successfully")
			return nil
		case "timeout":
			return fmt.Errorf("WhatsApp pairing timed out")
		}
	}

	return fmt.Errorf("WhatsApp pairing aborted")
}

func (c *Client) IsLoggedIn() bool {
	return c.WAClient.Store.ID != nil
}

func (c *Client) Disconnect() {
	c.WAClient.Disconnect()
}

// SendText sends a plain text message to a phone number.
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	if !c.WAClient.IsConnected() {
		return fmt.Errorf("whatsapp client not connected")
	}

	jid, err := parsePhoneJID(phone)
	if err != nil {
		return err
	}

	_, err = c.WAClient.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", phone, err)
	}
	return nil
}

func parsePhoneJID(phone string) (types.JID, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if cleaned == "" {
		return types.EmptyJID, fmt.Errorf("phone number is required")
	}
	// Already a full JID (e.g. from the contact store)
	if strings.ContainsRune(cleaned, '@') {
		return types.ParseJID(cleaned)
	}
	return types.NewJID(cleaned, types.DefaultUserServer), nil
}
