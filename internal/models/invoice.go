package models

import (
	"time"

	"invoiceflow/internal/billing"
	"invoiceflow/internal/uuid"

	"gorm.io/gorm"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusViewed  InvoiceStatus = "viewed"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceStatuses lists every valid status.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusViewed,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	for _, v := range InvoiceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Invoice is a billing document with line items and derived totals.
// Subtotal, TaxAmount and Total are recomputed from Items and TaxRate
// by the BeforeSave hook, so Items must be loaded before saving.
type Invoice struct {
	Base
	UserID        string        `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_user_number,priority:1" json:"userId"`
	InvoiceNumber string        `gorm:"not null;uniqueIndex:idx_invoices_user_number,priority:2" json:"invoiceNumber"`
	Status        InvoiceStatus `gorm:"not null;default:draft;index" json:"status"`
	ClientID      string        `gorm:"type:uuid;not null;index" json:"clientId"`
	IssueDate     time.Time     `gorm:"not null" json:"issueDate"`
	DueDate       time.Time     `gorm:"not null" json:"dueDate"`
	TaxRate       float64       `gorm:"not null;default:0" json:"taxRate"`
	Notes         string        `json:"notes"`
	Subtotal      float64       `gorm:"not null;default:0" json:"subtotal"`
	TaxAmount     float64       `gorm:"not null;default:0" json:"taxAmount"`
	Total         float64       `gorm:"not null;default:0" json:"total"`
	SentAt        *time.Time    `json:"sentAt,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`

	// Relationships
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Client *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// Lines converts the items for the billing calculator.
func (inv *Invoice) Lines() []billing.Line {
	lines := make([]billing.Line, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = billing.Line{Quantity: item.Quantity, Price: item.Price}
	}
	return lines
}

// RecalculateTotals refreshes item positions and amounts and the
// invoice-level totals.
func (inv *Invoice) RecalculateTotals() {
	for i := range inv.Items {
		inv.Items[i].Position = i
		inv.Items[i].Amount = billing.LineAmount(billing.Line{Quantity: inv.Items[i].Quantity, Price: inv.Items[i].Price})
	}
	totals := billing.Calculate(inv.Lines(), inv.TaxRate)
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
}

// SetStatus changes the status and stamps SentAt/PaidAt on the
// corresponding transitions.
func (inv *Invoice) SetStatus(status InvoiceStatus, now time.Time) {
	if inv.Status == status {
		return
	}
	inv.Status = status
	switch status {
	case InvoiceStatusSent:
		inv.SentAt = &now
	case InvoiceStatusPaid:
		inv.PaidAt = &now
	}
}

// BeforeSave keeps the stored totals consistent with the items.
func (inv *Invoice) BeforeSave(tx *gorm.DB) error {
	if inv.Status == "" {
		inv.Status = InvoiceStatusDraft
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = time.Now()
	}
	inv.RecalculateTotals()
	return nil
}

// InvoiceItem is one ordered line of an invoice.
type InvoiceItem struct {
	ID          string  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   string  `gorm:"type:uuid;not null;index" json:"-"`
	Position    int     `gorm:"not null" json:"-"`
	Description string  `gorm:"not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	Price       float64 `gorm:"not null" json:"price"`
	Amount      float64 `gorm:"not null" json:"amount"`
}

// BeforeCreate hook generates a UUIDv7 for new items
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.New()
	}
	return nil
}

// InvoiceSequence is the per-user invoice number counter.
type InvoiceSequence struct {
	UserID    string    `gorm:"type:uuid;primaryKey" json:"userId"`
	LastValue int64     `gorm:"not null;default:0" json:"lastValue"`
	UpdatedAt time.Time `json:"updatedAt"`
}
