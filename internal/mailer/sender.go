package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nepkart/internal/config"

	"github.com/rs/zerolog"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// httpSender implements Sender against a SendGrid-style mail HTTP API.
type httpSender struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPSender creates a mail sender with a bounded request timeout.
func NewHTTPSender(cfg config.MailConfig, logger zerolog.Logger) Sender {
	return &httpSender{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger.With().Str("component", "mail-sender").Logger(),
	}
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send posts the message to the mail API.
func (s *httpSender) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(mailPayload{
		From:    s.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("mail sent")

	return nil
}

// nopSender discards messages; used when mail is disabled.
type nopSender struct {
	logger zerolog.Logger
}

// NewNopSender creates a sender that only logs.
func NewNopSender(logger zerolog.Logger) Sender {
	return &nopSender{logger: logger.With().Str("component", "mail-sender").Logger()}
}

func (s *nopSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Msg("mail disabled, message dropped")
	return nil
}
