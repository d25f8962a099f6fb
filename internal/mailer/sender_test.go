package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nepkart/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_Send(t *testing.T) {
	var captured mailPayload
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewHTTPSender(config.MailConfig{
		Endpoint: server.URL,
		APIKey:   "mail-key-1",
		From:     "orders@shop.example.com",
		Timeout:  5,
	}, zerolog.Nop())

	err := sender.Send(context.Background(), "sita@example.com", "Thank you for your order!", "body text")

	require.NoError(t, err)
	assert.Equal(t, "Bearer mail-key-1", authHeader)
	assert.Equal(t, "orders@shop.example.com", captured.From)
	assert.Equal(t, "sita@example.com", captured.To)
	assert.Equal(t, "Thank you for your order!", captured.Subject)
	assert.Equal(t, "body text", captured.Body)
}

func TestHTTPSender_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewHTTPSender(config.MailConfig{
		Endpoint: server.URL,
		APIKey:   "bad-key",
		From:     "orders@shop.example.com",
		Timeout:  5,
	}, zerolog.Nop())

	err := sender.Send(context.Background(), "sita@example.com", "subject", "body")

	assert.ErrorContains(t, err, "status 401")
}

func TestNopSender_Send(t *testing.T) {
	sender := NewNopSender(zerolog.Nop())
	assert.NoError(t, sender.Send(context.Background(), "sita@example.com", "subject", "body"))
}
