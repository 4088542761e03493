package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/metrics"
	"invoiceflow/internal/models"
	"invoiceflow/internal/pagination"
	"invoiceflow/internal/pdf"
	"invoiceflow/internal/services"
)

// InvoiceHandler handles invoice-related requests.
type InvoiceHandler struct {
	invoiceService  services.InvoiceServicer
	deliveryService services.DeliveryServicer
	auditService    services.AuditServicer
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.InvoiceServicer, deliveryService services.DeliveryServicer, auditService services.AuditServicer) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		deliveryService: deliveryService,
		auditService:    auditService,
	}
}

// ItemRequest is one line item of an invoice
type ItemRequest struct {
	Description string  `json:"description" binding:"required,max=500"`
	Quantity    float64 `json:"quantity" binding:"required,gte=1"`
	Price       float64 `json:"price" binding:"gte=0"`
}

// CreateInvoiceRequest represents the request payload for creating an invoice
type CreateInvoiceRequest struct {
	ClientID  string        `json:"clientId" binding:"required"`
	IssueDate *string       `json:"issueDate"`
	DueDate   string        `json:"dueDate" binding:"required"`
	Items     []ItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxRate   float64       `json:"taxRate" binding:"gte=0,lte=100"`
	Notes     string        `json:"notes" binding:"max=2000"`
}

// UpdateInvoiceRequest represents a partial invoice update. A present items
// array replaces all existing items.
type UpdateInvoiceRequest struct {
	ClientID  *string               `json:"clientId"`
	IssueDate *string               `json:"issueDate"`
	DueDate   *string               `json:"dueDate"`
	Items     []ItemRequest         `json:"items" binding:"omitempty,min=1,dive"`
	TaxRate   *float64              `json:"taxRate" binding:"omitempty,gte=0,lte=100"`
	Notes     *string               `json:"notes" binding:"omitempty,max=2000"`
	Status    *models.InvoiceStatus `json:"status" binding:"omitempty,invoice_status"`
}

// SendEmailRequest is the optional body of a send-email request
type SendEmailRequest struct {
	CustomMessage string `json:"customMessage" binding:"max=2000"`
}

// InvoiceResponse wraps a single invoice
type InvoiceResponse struct {
	Success bool           `json:"success" example:"true"`
	Data    models.Invoice `json:"data"`
}

// InvoiceListResponse is a page of invoices
type InvoiceListResponse struct {
	Success    bool             `json:"success" example:"true"`
	Count      int              `json:"count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalItems int64            `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Data       []models.Invoice `json:"data"`
}

// StatsResponse wraps the dashboard figures
type StatsResponse struct {
	Success bool                  `json:"success" example:"true"`
	Data    services.InvoiceStats `json:"data"`
}

// SendEmailResponse describes a delivered invoice
type SendEmailResponse struct {
	Success bool                    `json:"success" example:"true"`
	Message string                  `json:"message"`
	Data    services.DeliveryResult `json:"data"`
}

func toItemInputs(items []ItemRequest) []services.ItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]services.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = services.ItemInput{Description: item.Description, Quantity: item.Quantity, Price: item.Price}
	}
	return inputs
}

// ListInvoices returns the caller's invoices
// @Summary     List invoices
// @Description Get a paginated list of the user's invoices, newest first, with client name and email
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int    false "Page number (default 1)"
// @Param       pageSize query int    false "Items per page (default 20, max 100)"
// @Param       status   query string false "Filter by status (draft, sent, viewed, paid, overdue)"
// @Param       clientId query string false "Filter by client ID"
// @Success     200 {object} InvoiceListResponse "Paginated invoices"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
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

	var filter services.InvoiceFilter
	if s := c.Query("status"); s != "" {
		status := models.InvoiceStatus(s)
		if !status.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Invalid status %q", s)))
			return
		}
		filter.Status = &status
	}
	if clientID := c.Query("clientId"); clientID != "" {
		filter.ClientID = &clientID
	}

	result, err := h.invoiceService.GetUserInvoices(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listBody(result))
}

// CreateInvoice handles the creation of a new invoice
// @Summary     Create an invoice
// @Description Create a draft invoice; the number and totals are assigned by the server
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInvoiceRequest true "Invoice details"
// @Success     201 {object} InvoiceResponse "Invoice created"
// @Failure     400 {object} ErrorResponse "Invalid input or unknown client"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"Please include client, due date, and at least one item: "+err.Error()))
		return
	}

	dueDate, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	issueDate, err := parseOptionalDate("issueDate", req.IssueDate)
	if err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(userID, services.InvoiceInput{
		ClientID:  req.ClientID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Items:     toItemInputs(req.Items),
		TaxRate:   req.TaxRate,
		Notes:     req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	metrics.RecordInvoiceCreated()
	h.auditService.Log(userID, services.AuditCreateInvoice, "invoice", invoice.ID, c.ClientIP(),
		map[string]interface{}{"invoiceNumber": invoice.InvoiceNumber, "clientId": invoice.ClientID, "total": invoice.Total})

	c.JSON(http.StatusCreated, InvoiceResponse{Success: true, Data: *invoice})
}

// GetInvoice returns a single invoice with its client
// @Summary     Get an invoice
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} InvoiceResponse "Invoice"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, InvoiceResponse{Success: true, Data: *invoice})
}

// UpdateInvoice applies a partial update to an invoice
// @Summary     Update an invoice
// @Description Update invoice fields; totals are recomputed. A present items array replaces all items.
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Invoice ID"
// @Param       request body UpdateInvoiceRequest true "Fields to update"
// @Success     200 {object} InvoiceResponse "Invoice updated"
// @Failure     400 {object} ErrorResponse "Invalid input or unknown client"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, parseErr := parseDate("dueDate", *req.DueDate)
		if parseErr != nil {
			respondWithError(c, invalidInput(parseErr))
			return
		}
		dueDate = &parsed
	}
	issueDate, err := parseOptionalDate("issueDate", req.IssueDate)
	if err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(userID, c.Param("id"), services.InvoiceUpdate{
		ClientID:  req.ClientID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Items:     toItemInputs(req.Items),
		TaxRate:   req.TaxRate,
		Notes:     req.Notes,
		Status:    req.Status,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{"total": invoice.Total}
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	if req.Items != nil {
		changes["items"] = len(req.Items)
	}
	if req.TaxRate != nil {
		changes["taxRate"] = *req.TaxRate
	}
	h.auditService.Log(userID, services.AuditUpdateInvoice, "invoice", invoice.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, InvoiceResponse{Success: true, Data: *invoice})
}

// DeleteInvoice deletes an invoice
// @Summary     Delete an invoice
// @Description Delete an invoice. Its number is not reused.
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} MessageResponse "Invoice deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID := c.Param("id")
	if err := h.invoiceService.DeleteInvoice(userID, invoiceID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteInvoice, "invoice", invoiceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Invoice deleted successfully"})
}

// GetStats returns dashboard figures
// @Summary     Invoice statistics
// @Description Totals for the dashboard: invoice count, outstanding, paid this month, overdue and counts by status
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} StatsResponse "Statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices/stats [get]
func (h *InvoiceHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.invoiceService.GetStats(userID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Success: true, Data: *stats})
}

// DownloadPDF streams the invoice PDF as an attachment
// @Summary     Download invoice PDF
// @Tags        invoices
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {file} file "PDF document"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     500 {object} ErrorResponse "Error generating PDF invoice"
// @Router      /invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	h.servePDF(c, "attachment")
}

// PreviewPDF streams the invoice PDF for inline display
// @Summary     Preview invoice PDF
// @Tags        invoices
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {file} file "PDF document"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     500 {object} ErrorResponse "Error generating PDF invoice"
// @Router      /invoices/{id}/preview [get]
func (h *InvoiceHandler) PreviewPDF(c *gin.Context) {
	h.servePDF(c, "inline")
}

func (h *InvoiceHandler) servePDF(c *gin.Context, disposition string) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rendered, err := h.deliveryService.RenderInvoicePDF(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, pdf.Filename(rendered.Invoice)))
	c.Data(http.StatusOK, "application/pdf", rendered.PDF)
}

// SendEmail emails the invoice PDF to the client
// @Summary     Email an invoice
// @Description Send the invoice PDF to the client's email address and mark the invoice as sent
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true  "Invoice ID"
// @Param       request body SendEmailRequest false "Optional custom message"
// @Success     200 {object} SendEmailResponse "Invoice sent"
// @Failure     400 {object} ErrorResponse "Client has no email or email not configured"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     502 {object} ErrorResponse "Email provider rejected the message"
// @Router      /invoices/{id}/send-email [post]
func (h *InvoiceHandler) SendEmail(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(c, invalidInput(err))
		return
	}

	invoiceID := c.Param("id")
	result, err := h.deliveryService.SendInvoice(c.Request.Context(), userID, invoiceID, req.CustomMessage)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSendInvoice, "invoice", invoiceID, c.ClientIP(),
		map[string]interface{}{"to": result.ClientEmail, "messageId": result.MessageID})

	c.JSON(http.StatusOK, SendEmailResponse{
		Success: true,
		Message: "Invoice sent successfully",
		Data:    *result,
	})
}
