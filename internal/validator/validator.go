// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"invoiceflow/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("invoice_status", validateInvoiceStatus)
		_ = v.RegisterValidation("clearable_email", validateClearableEmail(v))
	}
}

func validateInvoiceStatus(fl validator.FieldLevel) bool {
	return models.InvoiceStatus(fl.Field().String()).Valid()
}

// validateClearableEmail accepts an empty string or a valid address. Partial
// updates use it on *string fields, where "" means clear the value.
func validateClearableEmail(v *validator.Validate) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || v.Var(s, "email") == nil
	}
}
