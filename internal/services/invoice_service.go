package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoiceflow/internal/billing"
	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/models"
	"invoiceflow/internal/pagination"
)

// invoiceService handles invoice-related business logic.
type invoiceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewInvoiceService creates a new InvoiceServicer.
func NewInvoiceService(db *gorm.DB) InvoiceServicer {
	return &invoiceService{db: db, now: time.Now}
}

// CreateInvoice creates a draft invoice with the next number in the
// user's sequence.
func (s *invoiceService) CreateInvoice(userID string, input InvoiceInput) (*models.Invoice, error) {
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "clientId is required")
	}
	if input.DueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "dueDate is required")
	}
	if err := validateTaxRate(input.TaxRate); err != nil {
		return nil, err
	}
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		UserID:   userID,
		ClientID: input.ClientID,
		Status:   models.InvoiceStatusDraft,
		DueDate:  input.DueDate,
		TaxRate:  input.TaxRate,
		Notes:    input.Notes,
		Items:    items,
	}
	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureClientOwned(tx, userID, input.ClientID); err != nil {
			return err
		}

		number, err := nextInvoiceNumber(tx, userID)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		if err := tx.Create(invoice).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoiceByID(userID, invoice.ID)
}

// GetUserInvoices lists the user's invoices, newest first.
func (s *invoiceService) GetUserInvoices(userID string, page pagination.PageRequest, filter InvoiceFilter) (*pagination.PageResponse[models.Invoice], error) {
	page.Defaults()

	query := s.db.Model(&models.Invoice{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var invoices []models.Invoice
	if err := query.
		Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items", orderItems).
		Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&invoices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(invoices, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetInvoiceByID retrieves an invoice owned by userID with its client and
// ordered items.
func (s *invoiceService) GetInvoiceByID(userID, invoiceID string) (*models.Invoice, error) {
	return findInvoice(s.db, userID, invoiceID)
}

// UpdateInvoice applies a partial update and recomputes the totals.
func (s *invoiceService) UpdateInvoice(userID, invoiceID string, update InvoiceUpdate) (*models.Invoice, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		invoice, err := findInvoice(tx, userID, invoiceID)
		if err != nil {
			return err
		}

		if update.ClientID != nil && *update.ClientID != invoice.ClientID {
			if err := ensureClientOwned(tx, userID, *update.ClientID); err != nil {
				return err
			}
			invoice.ClientID = *update.ClientID
			invoice.Client = nil
		}
		if update.IssueDate != nil {
			invoice.IssueDate = *update.IssueDate
		}
		if update.DueDate != nil {
			if update.DueDate.IsZero() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "dueDate is required")
			}
			invoice.DueDate = *update.DueDate
		}
		if update.TaxRate != nil {
			if err := validateTaxRate(*update.TaxRate); err != nil {
				return err
			}
			invoice.TaxRate = *update.TaxRate
		}
		if update.Notes != nil {
			invoice.Notes = *update.Notes
		}
		if update.Status != nil {
			if !update.Status.Valid() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status")
			}
			invoice.SetStatus(*update.Status, s.now())
		}

		replaceItems := update.Items != nil
		if replaceItems {
			items, err := buildItems(update.Items)
			if err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			invoice.Items = items
		}

		if err := tx.Omit(clause.Associations).Save(invoice).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if replaceItems {
			for i := range invoice.Items {
				invoice.Items[i].InvoiceID = invoice.ID
			}
			if err := tx.Create(&invoice.Items).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoiceByID(userID, invoiceID)
}

// DeleteInvoice soft-deletes an invoice. Its number is never reissued.
func (s *invoiceService) DeleteInvoice(userID, invoiceID string) error {
	result := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).Delete(&models.Invoice{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInvoiceNotFound
	}
	return nil
}

// MarkSent moves an invoice to sent after a successful delivery.
func (s *invoiceService) MarkSent(userID, invoiceID string, now time.Time) (*models.Invoice, error) {
	invoice, err := findInvoice(s.db, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	invoice.SetStatus(models.InvoiceStatusSent, now)
	if err := s.db.Omit(clause.Associations).Save(invoice).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invoice, nil
}

// GetStats summarises the user's invoices relative to now.
func (s *invoiceService) GetStats(userID string, now time.Time) (*InvoiceStats, error) {
	var invoices []models.Invoice
	if err := s.db.Select("status", "total", "paid_at", "updated_at").
		Where("user_id = ?", userID).
		Find(&invoices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &InvoiceStats{
		TotalInvoices: int64(len(invoices)),
		CountByStatus: make(map[models.InvoiceStatus]int64, len(models.InvoiceStatuses)),
	}
	for _, status := range models.InvoiceStatuses {
		stats.CountByStatus[status] = 0
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	for _, inv := range invoices {
		stats.CountByStatus[inv.Status]++
		switch inv.Status {
		case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusViewed:
			stats.Outstanding += inv.Total
		case models.InvoiceStatusOverdue:
			stats.Overdue += inv.Total
		case models.InvoiceStatusPaid:
			paidAt := inv.UpdatedAt
			if inv.PaidAt != nil {
				paidAt = *inv.PaidAt
			}
			if !paidAt.Before(monthStart) && paidAt.Before(monthEnd) {
				stats.PaidThisMonth += inv.Total
			}
		}
	}

	stats.Outstanding = billing.Round2(stats.Outstanding)
	stats.Overdue = billing.Round2(stats.Overdue)
	stats.PaidThisMonth = billing.Round2(stats.PaidThisMonth)
	return stats, nil
}

// MarkOverdue flags every sent or viewed invoice whose due date has passed.
// Columns are updated directly so the totals hook does not run on a model
// without items.
func (s *invoiceService) MarkOverdue(now time.Time) (int64, error) {
	result := s.db.Model(&models.Invoice{}).
		Where("status IN ? AND due_date < ?",
			[]models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusViewed}, now).
		UpdateColumns(map[string]interface{}{
			"status":     models.InvoiceStatusOverdue,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

func findInvoice(db *gorm.DB, userID, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.Where("id = ? AND user_id = ?", invoiceID, userID).
		Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items", orderItems).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvoiceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &invoice, nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// ensureClientOwned rejects client ids that do not belong to userID.
func ensureClientOwned(tx *gorm.DB, userID, clientID string) error {
	var count int64
	if err := tx.Model(&models.Client{}).
		Where("id = ? AND user_id = ?", clientID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrInvalidClient
	}
	return nil
}

// nextInvoiceNumber increments the user's counter row and formats the
// result. A missing row is seeded from the user's most recent invoice so
// existing numbering continues where it left off.
func nextInvoiceNumber(tx *gorm.DB, userID string) (string, error) {
	seq := models.InvoiceSequence{UserID: userID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq)
	if res.Error != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	if res.RowsAffected == 1 {
		seed, err := latestInvoiceNumber(tx, userID)
		if err != nil {
			return "", err
		}
		if seed > 0 {
			if err := tx.Model(&models.InvoiceSequence{}).
				Where("user_id = ?", userID).
				UpdateColumn("last_value", seed).Error; err != nil {
				return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}

	if err := tx.Model(&models.InvoiceSequence{}).
		Where("user_id = ?", userID).
		UpdateColumn("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := tx.Where("user_id = ?", userID).First(&seq).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return billing.FormatNumber(seq.LastValue), nil
}

func latestInvoiceNumber(tx *gorm.DB, userID string) (int64, error) {
	var latest models.Invoice
	err := tx.Unscoped().
		Select("invoice_number").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if n, parseErr := billing.ParseNumber(latest.InvoiceNumber); parseErr == nil {
		return n, nil
	}

	var count int64
	if err := tx.Unscoped().Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func validateTaxRate(rate float64) error {
	if rate < 0 || rate > 100 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "taxRate must be between 0 and 100")
	}
	return nil
}

func buildItems(inputs []ItemInput) ([]models.InvoiceItem, error) {
	if len(inputs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one item is required")
	}
	items := make([]models.InvoiceItem, len(inputs))
	for i, in := range inputs {
		description := strings.TrimSpace(in.Description)
		if description == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item description is required")
		}
		if in.Quantity < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item quantity must be at least 1")
		}
		if in.Price < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item price cannot be negative")
		}
		items[i] = models.InvoiceItem{
			Position:    i,
			Description: description,
			Quantity:    in.Quantity,
			Price:       in.Price,
		}
	}
	return items, nil
}
