package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"invoiceflow/internal/mailer"
	"invoiceflow/internal/models"
	"invoiceflow/internal/pdf"
	"invoiceflow/internal/testutil"
)

const testAPIKey = "re_abcdefghijklmnopqrstuvwxyz_123"

type fakeRenderer struct {
	err  error
	docs []pdf.Document
}

func (f *fakeRenderer) Render(doc pdf.Document) ([]byte, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fakeSender struct {
	err      error
	messages []mailer.Message
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return "", f.err
	}
	return "msg_123", nil
}

type deliveryFixture struct {
	svc      *deliveryService
	invoices InvoiceServicer
	renderer *fakeRenderer
	sender   *fakeSender
	user     *models.User
	invoice  *models.Invoice
}

func setupDelivery(t *testing.T, clientEmail string) *deliveryFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	user := testutil.CreateTestUser(t, db)
	client := testutil.CreateTestClientWithEmail(t, db, user.ID, clientEmail)
	invoices := NewInvoiceService(db)
	inv, err := invoices.CreateInvoice(user.ID, sampleInvoiceInput(client.ID))
	testutil.AssertNoError(t, err)

	renderer := &fakeRenderer{}
	sender := &fakeSender{}
	svc := NewDeliveryService(invoices, NewUserService(db), renderer, sender, testAPIKey).(*deliveryService)
	return &deliveryFixture{svc: svc, invoices: invoices, renderer: renderer, sender: sender, user: user, invoice: inv}
}

func TestRenderInvoicePDF(t *testing.T) {
	t.Run("renders_owned_invoice", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")

		rendered, err := f.svc.RenderInvoicePDF(context.Background(), f.user.ID, f.invoice.ID)
		testutil.AssertNoError(t, err)

		if !strings.HasPrefix(string(rendered.PDF), "%PDF") {
			t.Error("expected PDF bytes")
		}
		doc := f.renderer.docs[0]
		if doc.Owner == nil || doc.Owner.ID != f.user.ID || doc.Client == nil {
			t.Error("expected owner and client to be passed to the renderer")
		}
	})

	t.Run("foreign_invoice", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")

		_, err := f.svc.RenderInvoicePDF(context.Background(), "00000000-0000-0000-0000-000000000000", f.invoice.ID)
		testutil.AssertAppError(t, err, "INVOICE_NOT_FOUND")
	})

	t.Run("render_failure", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")
		f.renderer.err = errors.New("font missing")

		_, err := f.svc.RenderInvoicePDF(context.Background(), f.user.ID, f.invoice.ID)
		testutil.AssertAppError(t, err, "PDF_RENDER_FAILED")
	})
}

func TestSendInvoice(t *testing.T) {
	t.Run("success_marks_sent", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")
		fixed := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
		f.svc.now = func() time.Time { return fixed }

		result, err := f.svc.SendInvoice(context.Background(), f.user.ID, f.invoice.ID, "See you soon")
		testutil.AssertNoError(t, err)

		if result.MessageID != "msg_123" || result.ClientEmail != "client@test.com" {
			t.Errorf("unexpected result %+v", result)
		}
		if result.InvoiceStatus != models.InvoiceStatusSent {
			t.Errorf("expected sent, got %s", result.InvoiceStatus)
		}

		msg := f.sender.messages[0]
		if msg.Subject != "Invoice #INV-001 from Test Studio" {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
		if msg.FromName != "Test Studio" {
			t.Errorf("unexpected from name %q", msg.FromName)
		}
		if !strings.Contains(msg.HTML, "See you soon") || !strings.Contains(msg.HTML, "$27.50") {
			t.Error("expected custom message and amount in body")
		}
		if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "invoice-INV-001.pdf" {
			t.Errorf("unexpected attachments %+v", msg.Attachments)
		}

		stored, err := f.invoices.GetInvoiceByID(f.user.ID, f.invoice.ID)
		testutil.AssertNoError(t, err)
		if stored.Status != models.InvoiceStatusSent || stored.SentAt == nil {
			t.Error("expected stored invoice to be sent with sentAt")
		}
	})

	t.Run("client_without_email", func(t *testing.T) {
		f := setupDelivery(t, "")

		_, err := f.svc.SendInvoice(context.Background(), f.user.ID, f.invoice.ID, "")
		testutil.AssertAppError(t, err, "CLIENT_EMAIL_MISSING")

		if len(f.sender.messages) != 0 {
			t.Error("no email should be attempted")
		}
		stored, _ := f.invoices.GetInvoiceByID(f.user.ID, f.invoice.ID)
		if stored.Status != models.InvoiceStatusDraft {
			t.Errorf("status must be unchanged, got %s", stored.Status)
		}
	})

	t.Run("provider_failure", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")
		f.sender.err = errors.New("[ERROR]: Too many requests")

		_, err := f.svc.SendInvoice(context.Background(), f.user.ID, f.invoice.ID, "")
		testutil.AssertAppError(t, err, "EMAIL_SEND_FAILED")
		if err.Error() != mailer.MessageRateLimit {
			t.Errorf("expected rate limit message, got %q", err.Error())
		}

		stored, _ := f.invoices.GetInvoiceByID(f.user.ID, f.invoice.ID)
		if stored.Status != models.InvoiceStatusDraft {
			t.Errorf("status must be unchanged, got %s", stored.Status)
		}
	})

	t.Run("missing_api_key", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")
		f.sender.err = mailer.ErrMissingAPIKey

		_, err := f.svc.SendInvoice(context.Background(), f.user.ID, f.invoice.ID, "")
		testutil.AssertAppError(t, err, "EMAIL_NOT_CONFIGURED")
	})

	t.Run("foreign_invoice", func(t *testing.T) {
		f := setupDelivery(t, "client@test.com")

		_, err := f.svc.SendInvoice(context.Background(), "00000000-0000-0000-0000-000000000000", f.invoice.ID, "")
		testutil.AssertAppError(t, err, "INVOICE_NOT_FOUND")
	})
}

func TestVerifyEmailSetup(t *testing.T) {
	f := setupDelivery(t, "client@test.com")
	testutil.AssertNoError(t, f.svc.VerifyEmailSetup(context.Background()))

	f.svc.apiKey = ""
	err := f.svc.VerifyEmailSetup(context.Background())
	testutil.AssertAppError(t, err, "EMAIL_NOT_CONFIGURED")
	if err.Error() != "RESEND_API_KEY environment variable is required" {
		t.Errorf("unexpected message %q", err.Error())
	}

	f.svc.apiKey = "sk_not_resend"
	err = f.svc.VerifyEmailSetup(context.Background())
	testutil.AssertAppError(t, err, "EMAIL_NOT_CONFIGURED")
	if err.Error() != "Invalid Resend API key format" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
