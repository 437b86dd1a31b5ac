package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"atmwater-backend/internal/common/config"
)

// Sender delivers one-time passwords to a phone number.
type Sender interface {
	SendOTP(ctx context.Context, phoneNumber, code string) error
}

// Client sends template messages through the Meta WhatsApp Cloud API.
type Client struct {
	httpClient    *http.Client
	accessToken   string
	phoneNumberID string
	templateName  string
}

const graphAPIBase = "https://graph.facebook.com/v18.0"

func NewClient(accessToken, phoneNumberID, templateName string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		templateName:  templateName,
	}
}

// NewFromConfig returns the Cloud API client when credentials are configured,
// and a log-only sender otherwise so local development works without a Meta
// account.
func NewFromConfig(cfg *config.Config) Sender {
	if cfg.WhatsApp.AccessToken == "" || cfg.WhatsApp.PhoneNumberID == "" {
		log.Warn().Msg("WhatsApp credentials not configured, OTP codes will be logged instead")
		return &LogSender{}
	}
	return NewClient(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.TemplateName)
}

type templateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         template `json:"template"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components"`
}

type language struct {
	Code string `json:"code"`
}

type component struct {
	Type       string      `json:"type"`
	SubType    string      `json:"sub_type,omitempty"`
	Index      string      `json:"index,omitempty"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *Client) SendOTP(ctx context.Context, phoneNumber, code string) error {
	msg := templateMessage{
		MessagingProduct: "whatsapp",
		To:               phoneNumber,
		Type:             "template",
		Template: template{
			Name:     c.templateName,
			Language: language{Code: "id"},
			Components: []component{
				{
					Type:       "body",
					Parameters: []parameter{{Type: "text", Text: code}},
				},
				{
					Type:       "button",
					SubType:    "url",
					Index:      "0",
					Parameters: []parameter{{Type: "text", Text: code}},
				},
			},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode whatsapp message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", graphAPIBase, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp API returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// LogSender writes the OTP to the application log instead of delivering it.
type LogSender struct{}

func (l *LogSender) SendOTP(_ context.Context, phoneNumber, code string) error {
	log.Info().
		Str("phone_number", phoneNumber).
		Str("code", code).
		Msg("OTP (log delivery)")
	return nil
}
