// Package whatsapp implements the outbound side of the WhatsApp Cloud API
// and the inbound webhook payload types.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liorazar/cashcoach/internal/config"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

// Sender is the outbound messaging capability the conversation layer uses.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
	SendButtons(ctx context.Context, phone, body string, buttons []Button) error
}

// Button is one interactive reply button
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Client sends messages through the WhatsApp Cloud API
type Client struct {
	baseURL string
	phoneID string
	token   string
	client  *http.Client
	log     *logrus.Logger
}

// NewClient initializes a WhatsApp client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.WhatsAppBaseURL,
		phoneID: cfg.WhatsAppPhoneID,
		token:   cfg.WhatsAppToken,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		log: log,
	}
}

// SendText sends a plain text message to a phone number
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	return c.send(ctx, payload)
}

// SendButtons sends an interactive message with up to three reply buttons
func (c *Client) SendButtons(ctx context.Context, phone, body string, buttons []Button) error {
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}
	btns := make([]map[string]interface{}, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, map[string]interface{}{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": b.Title},
		})
	}
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type":   "button",
			"body":   map[string]string{"text": body},
			"action": map[string]interface{}{"buttons": btns},
		},
	}
	return c.send(ctx, payload)
}

// DownloadMedia resolves a media ID to its binary content. The Cloud API
// hands out a short-lived URL first; the content fetch reuses the same token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, mediaID), nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: creating media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: media lookup failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whatsapp: media lookup status %d", resp.StatusCode)
	}

	var meta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("whatsapp: parsing media lookup: %w", err)
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("whatsapp: media %s has no download url", mediaID)
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: creating download request: %w", err)
	}
	dlReq.Header.Set("Authorization", "Bearer "+c.token)

	dlResp, err := c.client.Do(dlReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: media download failed: %w", err)
	}
	defer dlResp.Body.Close()
	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whatsapp: media download status %d", dlResp.StatusCode)
	}

	const maxMediaSize = 16 << 20
	data, err := io.ReadAll(io.LimitReader(dlResp.Body, maxMediaSize))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: reading media: %w", err)
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: encoding message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Errorf("WhatsApp send failed (%d): %s", resp.StatusCode, string(raw))
		return fmt.Errorf("whatsapp: unexpected status %d", resp.StatusCode)
	}
	return nil
}
