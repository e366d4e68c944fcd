package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vetpms/backend/internal/domain/billing"
)

// RegisterValidators installs custom binding validators on gin's
// validator engine. Call once at startup before serving requests.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("invoicestatus", validInvoiceStatus)
}

func validInvoiceStatus(fl validator.FieldLevel) bool {
	return billing.InvoiceStatus(fl.Field().String()).IsValid()
}
