package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "re_abcdefghijklmnopqrstuvwxyz_123"

func TestVerifyAPIKey(t *testing.T) {
	assert.ErrorIs(t, VerifyAPIKey(""), ErrMissingAPIKey)
	assert.ErrorIs(t, VerifyAPIKey("sk_live_123"), ErrInvalidAPIKey)
	assert.ErrorIs(t, VerifyAPIKey("re_short"), ErrInvalidAPIKey)
	assert.ErrorIs(t, VerifyAPIKey("re_has-dash-chars-that-are-not-allowed"), ErrInvalidAPIKey)
	assert.NoError(t, VerifyAPIKey(validKey))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, MessageValidation, UserMessage(errors.New("[ERROR]: Invalid `to` field")))
	assert.Equal(t, MessageValidation, UserMessage(errors.New("validation_error: missing required field")))
	assert.Equal(t, MessageRateLimit, UserMessage(errors.New("Too many requests")))
	assert.Equal(t, MessageRateLimit, UserMessage(errors.New("rate limit exceeded")))
	assert.Equal(t, MessageGeneric, UserMessage(errors.New("connection refused")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestUserMessageIgnoresRecipientAddress(t *testing.T) {
	serverErr := &SendError{To: "invalid.person@x.com", Err: errors.New("Internal server error")}
	assert.Equal(t, MessageGeneric, UserMessage(serverErr))
	assert.Equal(t, MessageGeneric, UserMessage(fmt.Errorf("delivering invoice: %w", serverErr)))

	limited := &SendError{To: "invalid.person@x.com", Err: errors.New("Too many requests")}
	assert.Equal(t, MessageRateLimit, UserMessage(limited))

	provider := errors.New("validation_error: invalid from address")
	wrapped := &SendError{To: "ok@example.com", Err: provider}
	assert.Equal(t, MessageValidation, UserMessage(wrapped))
	assert.ErrorIs(t, wrapped, provider)
	assert.Contains(t, wrapped.Error(), "ok@example.com")
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, "Ada Studio <billing@example.com>", formatFrom("Ada Studio", "billing@example.com"))
	assert.Equal(t, "billing@example.com", formatFrom("  ", "billing@example.com"))
	assert.Equal(t, "Ada Studio <billing@example.com>", formatFrom(`"Ada <Studio>"`, "billing@example.com"))
}

func TestRenderInvoiceEmail(t *testing.T) {
	e := InvoiceEmail{
		BusinessName:  "Ada Studio",
		InvoiceNumber: "INV-003",
		ClientName:    "Acme <Corp>",
		AmountDue:     27.5,
		DueDate:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	body, err := RenderInvoiceEmail(e)
	require.NoError(t, err)
	assert.Contains(t, body, "Ada Studio")
	assert.Contains(t, body, "INV-003")
	assert.Contains(t, body, "$27.50")
	assert.Contains(t, body, "June 30, 2024")
	assert.Contains(t, body, "Acme &lt;Corp&gt;")
	assert.Contains(t, body, "Please find attached invoice INV-003")
	assert.Equal(t, "Invoice #INV-003 from Ada Studio", e.Subject())

	e.CustomMessage = "Thanks for the quick turnaround!"
	body, err = RenderInvoiceEmail(e)
	require.NoError(t, err)
	assert.Contains(t, body, "Thanks for the quick turnaround!")
	assert.NotContains(t, body, "Please find attached invoice")
}

func newTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewResendSender(validKey, "billing@example.com", srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base
	return s
}

func TestResendSenderSend(t *testing.T) {
	var got map[string]interface{}
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/emails"))
		assert.Equal(t, "Bearer "+validKey, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	})

	id, err := s.Send(context.Background(), Message{
		FromName:    "Ada Studio",
		To:          "client@example.com",
		Subject:     "Invoice #INV-001 from Ada Studio",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{Filename: "invoice-INV-001.pdf", Content: []byte("%PDF-1.3")}},
	})

	require.NoError(t, err)
	assert.Equal(t, "msg_123", id)
	assert.Equal(t, "Ada Studio <billing@example.com>", got["from"])
	assert.Equal(t, "Invoice #INV-001 from Ada Studio", got["subject"])
	attachments, ok := got["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, attachments, 1)
	assert.Equal(t, "invoice-INV-001.pdf", attachments[0].(map[string]interface{})["filename"])
}

func TestResendSenderProviderError(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	})

	_, err := s.Send(context.Background(), Message{To: "nope", Subject: "x", HTML: "x"})
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "nope", sendErr.To)
}

func TestResendSenderServerErrorForInvalidLookingAddress(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"statusCode":500,"name":"application_error","message":"Something went wrong"}`))
	})

	_, err := s.Send(context.Background(), Message{To: "invalid.person@x.com", Subject: "x", HTML: "x"})
	require.Error(t, err)
	assert.Equal(t, MessageGeneric, UserMessage(err))
}

func TestResendSenderWithoutKey(t *testing.T) {
	s := NewResendSender("", "billing@example.com", nil)
	_, err := s.Send(context.Background(), Message{To: "client@example.com"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
