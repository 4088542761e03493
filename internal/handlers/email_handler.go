package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/services"
)

// EmailHandler exposes the email provider status.
type EmailHandler struct {
	deliveryService services.DeliveryServicer
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(deliveryService services.DeliveryServicer) *EmailHandler {
	return &EmailHandler{deliveryService: deliveryService}
}

// EmailStatus describes a ready email provider
type EmailStatus struct {
	Service string `json:"service" example:"Resend"`
	Status  string `json:"status" example:"Ready"`
}

// EmailVerifyResponse is returned when email delivery is configured
type EmailVerifyResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message"`
	Data    EmailStatus `json:"data"`
}

// Verify checks the email provider configuration
// @Summary     Verify email configuration
// @Description Check that the Resend API key is present and well formed
// @Tags        email
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} EmailVerifyResponse "Email service ready"
// @Failure     400 {object} ErrorResponse "Email service not configured"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /email/verify [get]
func (h *EmailHandler) Verify(c *gin.Context) {
	if err := h.deliveryService.VerifyEmailSetup(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, EmailVerifyResponse{
		Success: true,
		Message: "Email service is properly configured",
		Data:    EmailStatus{Service: "Resend", Status: "Ready"},
	})
}
