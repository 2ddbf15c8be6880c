package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// Processor and order identifiers: alphanumeric with underscore,
	// dash and dot (pm_..., cus_..., Mongo object ids).
	safeIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

	// Lowercase ISO 4217 code as the processor expects it.
	currencyRe = regexp.MustCompile(`^[a-z]{3}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("currency", validateCurrency)
	}
}

func validateSafeID(fl validator.FieldLevel) bool {
	return safeIDRe.MatchString(fl.Field().String())
}

func validateCurrency(fl validator.FieldLevel) bool {
	return currencyRe.MatchString(fl.Field().String())
}
