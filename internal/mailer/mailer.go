// Package mailer delivers invoice emails through Resend.
package mailer

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// Errors returned when the provider is not usable.
var (
	ErrMissingAPIKey = errors.New("RESEND_API_KEY environment variable is required")
	ErrInvalidAPIKey = errors.New("Invalid Resend API key format")
)

// User-facing failure messages.
const (
	MessageValidation = "Invalid email address or missing required fields"
	MessageRateLimit  = "Email rate limit exceeded. Please try again later."
	MessageGeneric    = "Failed to send email"
)

var apiKeyPattern = regexp.MustCompile(`^re_[a-zA-Z0-9_]{20,}$`)

// VerifyAPIKey checks that a Resend key is present and well-formed.
// It does not contact the provider.
func VerifyAPIKey(key string) error {
	if key == "" {
		return ErrMissingAPIKey
	}
	if !apiKeyPattern.MatchString(key) {
		return ErrInvalidAPIKey
	}
	return nil
}

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a single outgoing email.
type Message struct {
	FromName    string
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendSender sends mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	apiKey string
	from   string
}

// NewResendSender creates a sender for the given API key and from address.
// A nil httpClient uses a client with a 30 second timeout.
func NewResendSender(apiKey, from string, httpClient *http.Client) *ResendSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ResendSender{
		client: resend.NewCustomClient(httpClient, apiKey),
		apiKey: apiKey,
		from:   from,
	}
}

// Send submits msg to Resend. No retry is attempted.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	req := &resend.SendEmailRequest{
		From:    formatFrom(msg.FromName, s.from),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", &SendError{To: msg.To, Err: err}
	}
	return sent.Id, nil
}

// SendError is a provider failure for one recipient.
type SendError struct {
	To  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sending email to %s: %v", e.To, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func formatFrom(name, address string) string {
	name = strings.NewReplacer(`"`, "", "<", "", ">", "").Replace(strings.TrimSpace(name))
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

// UserMessage maps a provider error to the message shown to API callers.
// Only the provider's own text is classified, never the recipient address.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var sendErr *SendError
	if errors.As(err, &sendErr) && sendErr.Err != nil {
		err = sendErr.Err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return MessageRateLimit
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"), strings.Contains(msg, "missing required"):
		return MessageValidation
	default:
		return MessageGeneric
	}
}

//go:embed templates/invoice_email.html
var invoiceEmailSource string

var invoiceEmailTemplate = template.Must(template.New("invoice_email").Parse(invoiceEmailSource))

// InvoiceEmail holds the values shown in the invoice email body.
type InvoiceEmail struct {
	BusinessName  string
	InvoiceNumber string
	ClientName    string
	CustomMessage string
	AmountDue     float64
	DueDate       time.Time
}

// Subject is the subject line of the invoice email.
func (e InvoiceEmail) Subject() string {
	return fmt.Sprintf("Invoice #%s from %s", e.InvoiceNumber, e.BusinessName)
}

// RenderInvoiceEmail renders the HTML body of an invoice email.
func RenderInvoiceEmail(e InvoiceEmail) (string, error) {
	var buf bytes.Buffer
	err := invoiceEmailTemplate.Execute(&buf, struct {
		BusinessName  string
		InvoiceNumber string
		ClientName    string
		CustomMessage string
		AmountDue     string
		DueDate       string
	}{
		BusinessName:  e.BusinessName,
		InvoiceNumber: e.InvoiceNumber,
		ClientName:    e.ClientName,
		CustomMessage: strings.TrimSpace(e.CustomMessage),
		AmountDue:     fmt.Sprintf("$%.2f", e.AmountDue),
		DueDate:       e.DueDate.Format("January 2, 2006"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering invoice email: %w", err)
	}
	return buf.String(), nil
}
