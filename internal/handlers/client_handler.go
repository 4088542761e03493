package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/models"
	"invoiceflow/internal/pagination"
	"invoiceflow/internal/services"
)

// ClientHandler handles client-related requests.
type ClientHandler struct {
	clientService services.ClientServicer
	auditService  services.AuditServicer
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService services.ClientServicer, auditService services.AuditServicer) *ClientHandler {
	return &ClientHandler{clientService: clientService, auditService: auditService}
}

// CreateClientRequest represents the request payload for creating a client
type CreateClientRequest struct {
	Name    string         `json:"name" binding:"required,max=200"`
	Email   string         `json:"email" binding:"omitempty,email,max=255"`
	Phone   string         `json:"phone" binding:"max=50"`
	Address models.Address `json:"address"`
}

// UpdateClientRequest represents a partial client update. An empty string
// clears a field, an absent field is left unchanged.
type UpdateClientRequest struct {
	Name    *string         `json:"name" binding:"omitempty,max=200"`
	Email   *string         `json:"email" binding:"omitempty,clearable_email,max=255"`
	Phone   *string         `json:"phone" binding:"omitempty,max=50"`
	Address *models.Address `json:"address"`
}

// ClientResponse wraps a single client
type ClientResponse struct {
	Success bool          `json:"success" example:"true"`
	Data    models.Client `json:"data"`
}

// ClientListResponse is a page of clients
type ClientListResponse struct {
	Success    bool            `json:"success" example:"true"`
	Count      int             `json:"count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalItems int64           `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
	Data       []models.Client `json:"data"`
}

// ListClients returns the caller's clients
// @Summary     List clients
// @Description Get a paginated list of the user's clients ordered by name, optionally filtered by name or email
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int    false "Page number (default 1)"
// @Param       pageSize query int    false "Items per page (default 20, max 100)"
// @Param       search   query string false "Case-insensitive match on name or email"
// @Success     200 {object} ClientListResponse "Paginated clients"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.clientService.GetUserClients(userID, page, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listBody(result))
}

// CreateClient handles the creation of a new client
// @Summary     Create a client
// @Description Create a new client owned by the authenticated user
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateClientRequest true "Client details"
// @Success     201 {object} ClientResponse "Client created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	client, err := h.clientService.CreateClient(userID, services.ClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateClient, "client", client.ID, c.ClientIP(),
		map[string]interface{}{"name": client.Name, "email": client.Email})

	c.JSON(http.StatusCreated, ClientResponse{Success: true, Data: *client})
}

// GetClient returns a single client
// @Summary     Get a client
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Client ID"
// @Success     200 {object} ClientResponse "Client"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	client, err := h.clientService.GetClientByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ClientResponse{Success: true, Data: *client})
}

// UpdateClient applies a partial update to a client
// @Summary     Update a client
// @Description Update client fields; an empty string clears a field, an absent field is left unchanged
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Client ID"
// @Param       request body UpdateClientRequest true "Fields to update"
// @Success     200 {object} ClientResponse "Client updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	client, err := h.clientService.UpdateClient(userID, c.Param("id"), services.ClientUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Email != nil {
		changes["email"] = *req.Email
	}
	if req.Phone != nil {
		changes["phone"] = *req.Phone
	}
	if req.Address != nil {
		changes["address"] = *req.Address
	}
	h.auditService.Log(userID, services.AuditUpdateClient, "client", client.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, ClientResponse{Success: true, Data: *client})
}

// DeleteClient deletes a client
// @Summary     Delete a client
// @Description Delete a client that is not referenced by any invoice
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Client ID"
// @Success     200 {object} MessageResponse "Client deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     409 {object} ErrorResponse "Client has invoices"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	clientID := c.Param("id")
	if err := h.clientService.DeleteClient(userID, clientID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteClient, "client", clientID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Client deleted successfully"})
}
