package services

import (
	"context"
	"errors"
	"time"

	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/mailer"
	"invoiceflow/internal/metrics"
	"invoiceflow/internal/pdf"
)

// deliveryService renders invoice PDFs and emails them to clients.
type deliveryService struct {
	invoices InvoiceServicer
	users    UserServicer
	renderer pdf.Renderer
	sender   mailer.Sender
	apiKey   string
	now      func() time.Time
}

// NewDeliveryService creates a new DeliveryServicer.
func NewDeliveryService(invoices InvoiceServicer, users UserServicer, renderer pdf.Renderer, sender mailer.Sender, apiKey string) DeliveryServicer {
	return &deliveryService{
		invoices: invoices,
		users:    users,
		renderer: renderer,
		sender:   sender,
		apiKey:   apiKey,
		now:      time.Now,
	}
}

// RenderInvoicePDF loads an owned invoice with its client and owner and
// renders it.
func (s *deliveryService) RenderInvoicePDF(ctx context.Context, userID, invoiceID string) (*RenderedInvoice, error) {
	invoice, err := s.invoices.GetInvoiceByID(userID, invoiceID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	data, err := s.renderer.Render(pdf.Document{Invoice: invoice, Client: invoice.Client, Owner: owner})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPDFRender, err)
	}
	return &RenderedInvoice{Invoice: invoice, PDF: data}, nil
}

// SendInvoice emails the invoice PDF to the client and marks the invoice
// sent. The status is left untouched when delivery fails.
func (s *deliveryService) SendInvoice(ctx context.Context, userID, invoiceID, customMessage string) (*DeliveryResult, error) {
	invoice, err := s.invoices.GetInvoiceByID(userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Client == nil || invoice.Client.Email == "" {
		return nil, apperrors.ErrClientEmailMissing
	}

	rendered, err := s.RenderInvoicePDF(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	email := mailer.InvoiceEmail{
		BusinessName:  owner.BusinessName(),
		InvoiceNumber: invoice.InvoiceNumber,
		ClientName:    invoice.Client.Name,
		CustomMessage: customMessage,
		AmountDue:     invoice.Total,
		DueDate:       invoice.DueDate,
	}
	body, err := mailer.RenderInvoiceEmail(email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	messageID, err := s.sender.Send(ctx, mailer.Message{
		FromName: owner.BusinessName(),
		To:       invoice.Client.Email,
		Subject:  email.Subject(),
		HTML:     body,
		Attachments: []mailer.Attachment{
			{Filename: pdf.Filename(invoice), Content: rendered.PDF},
		},
	})
	if err != nil {
		metrics.RecordEmail(metrics.EmailFailed)
		if errors.Is(err, mailer.ErrMissingAPIKey) {
			return nil, apperrors.WithMessage(apperrors.ErrEmailNotConfigured, err.Error())
		}
		sendErr := apperrors.Wrap(apperrors.ErrEmailSendFailed, err)
		sendErr.Message = mailer.UserMessage(err)
		return nil, sendErr
	}
	metrics.RecordEmail(metrics.EmailSent)

	updated, err := s.invoices.MarkSent(userID, invoiceID, s.now())
	if err != nil {
		return nil, err
	}

	return &DeliveryResult{
		ClientEmail:   invoice.Client.Email,
		MessageID:     messageID,
		InvoiceStatus: updated.Status,
	}, nil
}

// VerifyEmailSetup checks the provider configuration without sending.
func (s *deliveryService) VerifyEmailSetup(ctx context.Context) error {
	if err := mailer.VerifyAPIKey(s.apiKey); err != nil {
		return apperrors.WithMessage(apperrors.ErrEmailNotConfigured, err.Error())
	}
	return ctx.Err()
}
