package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var paymentMethodRgx = regexp.MustCompile(`^[A-Z]+(_[A-Z]+)*$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("payment_method", validatePaymentMethod)

	return validator
}

// validatePaymentMethod accepts any well-formed method tag. Unknown tags are
// routed to the fallback gateway rather than rejected here.
func validatePaymentMethod(fl validator.FieldLevel) bool {
	method := strings.ToUpper(strings.TrimSpace(fl.Field().String()))

	return paymentMethodRgx.MatchString(method)
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s items", err.Param())
	case "max":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("must contain at most %s items", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "payment_method":
		return "must be a payment method such as CARD, CASH or NET_BANKING"
	default:
		return "is invalid"
	}
}
