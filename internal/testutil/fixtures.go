package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"invoiceflow/internal/billing"
	"invoiceflow/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:        "Test User",
		Email:       email,
		Password:    string(hash),
		CompanyName: "Test Studio",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestClient creates a client with an email address.
func CreateTestClient(t *testing.T, db *gorm.DB, userID string) *models.Client {
	t.Helper()
	n := nextID()
	return CreateTestClientWithEmail(t, db, userID, fmt.Sprintf("client%d@test.com", n))
}

// CreateTestClientWithEmail creates a client with the given email, which may be empty.
func CreateTestClientWithEmail(t *testing.T, db *gorm.DB, userID, email string) *models.Client {
	t.Helper()

	client := &models.Client{
		UserID: userID,
		Name:   fmt.Sprintf("Test Client %d", nextID()),
		Email:  email,
		Address: models.Address{
			Street:  "1 Main St",
			City:    "Springfield",
			Country: "US",
		},
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	return client
}

// CreateTestInvoice creates a draft invoice with two items at 10% tax,
// totalling 27.50. The invoice number is taken from the fixture counter,
// not from the user's sequence.
func CreateTestInvoice(t *testing.T, db *gorm.DB, userID, clientID string) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		UserID:        userID,
		ClientID:      clientID,
		InvoiceNumber: billing.FormatNumber(nextID()),
		Status:        models.InvoiceStatusDraft,
		IssueDate:     time.Now(),
		DueDate:       time.Now().AddDate(0, 0, 30),
		TaxRate:       10,
		Items: []models.InvoiceItem{
			{Description: "A", Quantity: 2, Price: 10},
			{Description: "B", Quantity: 1, Price: 5},
		},
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("failed to create test invoice: %v", err)
	}
	return invoice
}

// CreateTestInvoiceWithStatus creates an invoice in the given status and due date.
func CreateTestInvoiceWithStatus(t *testing.T, db *gorm.DB, userID, clientID string, status models.InvoiceStatus, due time.Time) *models.Invoice {
	t.Helper()

	invoice := CreateTestInvoice(t, db, userID, clientID)
	if err := db.Model(invoice).UpdateColumns(map[string]interface{}{
		"status":   status,
		"due_date": due,
	}).Error; err != nil {
		t.Fatalf("failed to update test invoice: %v", err)
	}
	invoice.Status = status
	invoice.DueDate = due
	return invoice
}
