package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/models"
	"invoiceflow/internal/pagination"
)

// clientService handles client-related business logic.
type clientService struct {
	db *gorm.DB
}

// NewClientService creates a new ClientServicer.
func NewClientService(db *gorm.DB) ClientServicer {
	return &clientService{db: db}
}

// CreateClient creates a client owned by userID.
func (s *clientService) CreateClient(userID string, input ClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	client := &models.Client{
		UserID:  userID,
		Name:    name,
		Email:   normalizeEmail(input.Email),
		Phone:   strings.TrimSpace(input.Phone),
		Address: input.Address,
	}

	if err := s.db.Create(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return client, nil
}

// GetUserClients lists the user's clients by name. search matches name or
// email case-insensitively.
func (s *clientService) GetUserClients(userID string, page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error) {
	page.Defaults()

	query := s.db.Model(&models.Client{}).Where("user_id = ?", userID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var clients []models.Client
	if err := query.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(clients, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetClientByID retrieves a client owned by userID.
func (s *clientService) GetClientByID(userID, clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &client, nil
}

// UpdateClient applies the non-nil fields of update.
func (s *clientService) UpdateClient(userID, clientID string, update ClientUpdate) (*models.Client, error) {
	client, err := s.GetClientByID(userID, clientID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		client.Name = name
	}
	if update.Email != nil {
		client.Email = normalizeEmail(*update.Email)
	}
	if update.Phone != nil {
		client.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Address != nil {
		client.Address = *update.Address
	}

	if err := s.db.Save(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return client, nil
}

// DeleteClient soft-deletes a client that no invoice references.
func (s *clientService) DeleteClient(userID, clientID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrClientNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var invoiceCount int64
		if err := tx.Model(&models.Invoice{}).Where("client_id = ?", clientID).Count(&invoiceCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if invoiceCount > 0 {
			return apperrors.ErrClientInUse
		}

		if err := tx.Delete(&client).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
