package services

import (
	"context"
	"time"

	"invoiceflow/internal/models"
	"invoiceflow/internal/pagination"
)

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	CompanyName *string
	Phone       *string
	Address     *models.Address
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password, companyName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	Authenticate(email, password string) (*models.User, error)
	UpdateProfile(userID string, update ProfileUpdate) (*models.User, error)
}

// ClientInput holds the fields of a new client.
type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address models.Address
}

// ClientUpdate holds a partial client update; nil means unchanged and an
// empty string clears the field.
type ClientUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *models.Address
}

// ClientServicer defines the contract for client-related business logic.
type ClientServicer interface {
	CreateClient(userID string, input ClientInput) (*models.Client, error)
	GetUserClients(userID string, page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error)
	GetClientByID(userID, clientID string) (*models.Client, error)
	UpdateClient(userID, clientID string, update ClientUpdate) (*models.Client, error)
	DeleteClient(userID, clientID string) error
}

// ItemInput is one line item as submitted by the caller.
type ItemInput struct {
	Description string
	Quantity    float64
	Price       float64
}

// InvoiceInput holds the fields of a new invoice.
type InvoiceInput struct {
	ClientID  string
	IssueDate *time.Time
	DueDate   time.Time
	Items     []ItemInput
	TaxRate   float64
	Notes     string
}

// InvoiceUpdate holds a partial invoice update; nil means unchanged.
// A non-nil Items replaces the whole item list.
type InvoiceUpdate struct {
	ClientID  *string
	IssueDate *time.Time
	DueDate   *time.Time
	Items     []ItemInput
	TaxRate   *float64
	Notes     *string
	Status    *models.InvoiceStatus
}

// InvoiceFilter holds optional filter parameters for listing invoices.
type InvoiceFilter struct {
	Status   *models.InvoiceStatus
	ClientID *string
}

// InvoiceStats is the dashboard summary of a user's invoices.
type InvoiceStats struct {
	TotalInvoices int64                          `json:"totalInvoices"`
	Outstanding   float64                        `json:"outstanding"`
	PaidThisMonth float64                        `json:"paidThisMonth"`
	Overdue       float64                        `json:"overdue"`
	CountByStatus map[models.InvoiceStatus]int64 `json:"countByStatus"`
}

// InvoiceServicer defines the contract for invoice-related business logic.
type InvoiceServicer interface {
	CreateInvoice(userID string, input InvoiceInput) (*models.Invoice, error)
	GetUserInvoices(userID string, page pagination.PageRequest, filter InvoiceFilter) (*pagination.PageResponse[models.Invoice], error)
	GetInvoiceByID(userID, invoiceID string) (*models.Invoice, error)
	UpdateInvoice(userID, invoiceID string, update InvoiceUpdate) (*models.Invoice, error)
	DeleteInvoice(userID, invoiceID string) error
	MarkSent(userID, invoiceID string, now time.Time) (*models.Invoice, error)
	GetStats(userID string, now time.Time) (*InvoiceStats, error)
	MarkOverdue(now time.Time) (int64, error)
}

// DeliveryResult describes a successfully emailed invoice.
type DeliveryResult struct {
	ClientEmail   string               `json:"clientEmail"`
	MessageID     string               `json:"messageId"`
	InvoiceStatus models.InvoiceStatus `json:"invoiceStatus"`
}

// RenderedInvoice is an invoice together with its PDF rendering.
type RenderedInvoice struct {
	Invoice *models.Invoice
	PDF     []byte
}

// DeliveryServicer renders invoices and emails them to clients.
type DeliveryServicer interface {
	RenderInvoicePDF(ctx context.Context, userID, invoiceID string) (*RenderedInvoice, error)
	SendInvoice(ctx context.Context, userID, invoiceID, customMessage string) (*DeliveryResult, error)
	VerifyEmailSetup(ctx context.Context) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
