package testutil

import (
	"errors"
	"testing"

	"invoiceflow/internal/billing"
	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/models"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertInvoiceTotals checks the stored totals of inv and that every item
// amount and the totals agree with the items and tax rate.
func AssertInvoiceTotals(t *testing.T, inv *models.Invoice, subtotal, taxAmount, total float64) {
	t.Helper()

	if inv.Subtotal != subtotal || inv.TaxAmount != taxAmount || inv.Total != total {
		t.Errorf("expected totals %v/%v/%v, got %v/%v/%v",
			subtotal, taxAmount, total, inv.Subtotal, inv.TaxAmount, inv.Total)
	}
	for i, item := range inv.Items {
		want := billing.LineAmount(billing.Line{Quantity: item.Quantity, Price: item.Price})
		if item.Amount != want {
			t.Errorf("item %d (%s): expected amount %v, got %v", i, item.Description, want, item.Amount)
		}
	}
	derived := billing.Calculate(inv.Lines(), inv.TaxRate)
	if derived.Subtotal != inv.Subtotal || derived.TaxAmount != inv.TaxAmount || derived.Total != inv.Total {
		t.Errorf("stored totals %v/%v/%v do not match items (%v/%v/%v)",
			inv.Subtotal, inv.TaxAmount, inv.Total, derived.Subtotal, derived.TaxAmount, derived.Total)
	}
}
