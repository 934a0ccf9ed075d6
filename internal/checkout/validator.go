package checkout

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// minAddressLen is the shortest trimmed delivery address accepted.
const minAddressLen = 10

// NewValidator returns a configured validator with the struct-level checkout
// form rules registered.
func NewValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(checkoutFormValidation, domain.CheckoutForm{})
	return v
}

func checkoutFormValidation(sl validatorv10.StructLevel) {
	form := sl.Current().Interface().(domain.CheckoutForm)

	if len(strings.TrimSpace(form.DeliveryAddress)) < minAddressLen {
		sl.ReportError(form.DeliveryAddress, "deliveryAddress", "DeliveryAddress", "address_min", "")
	}
	if !form.PaymentMethod.Valid() {
		sl.ReportError(form.PaymentMethod, "paymentMethod", "PaymentMethod", "payment_method", "")
	}
}

// ValidateForm runs the form through the validator and flattens failures into
// a field-keyed message map. An empty map means the form may be submitted.
// Pure apart from the validator cache; safe to call on every change.
func ValidateForm(v *validatorv10.Validate, form domain.CheckoutForm) map[string]string {
	err := v.Struct(form)
	if err == nil {
		return map[string]string{}
	}

	fields := map[string]string{}
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		fields["form"] = err.Error()
		return fields
	}

	for _, fe := range ve {
		switch fe.Tag() {
		case "address_min":
			fields[fe.Field()] = "delivery address must be at least 10 characters"
		case "payment_method":
			fields[fe.Field()] = "unsupported payment method"
		default:
			fields[fe.Field()] = fe.Error()
		}
	}
	return fields
}
