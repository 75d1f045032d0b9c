package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoPayload struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

// BrevoMailer delivers mail through the Brevo transactional API.
type BrevoMailer struct {
	Client *http.Client
}

func NewBrevoMailer() *BrevoMailer {
	return &BrevoMailer{
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BrevoMailer) Send(ctx context.Context, m *Message) error {
	payload := brevoPayload{
		Sender: brevoContact{
			Email: viper.GetString("mail.brevo.sender_email"),
			Name:  viper.GetString("mail.brevo.sender_name"),
		},
		To:          []brevoContact{{Email: m.To, Name: m.ToName}},
		Subject:     m.Subject,
		HTMLContent: m.HTML,
		TextContent: m.Text,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", viper.GetString("mail.brevo.api_key"))

	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
