package checkout

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

var (
	cardDigitsRe = regexp.MustCompile(`^\d{13,19}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	postalRe     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\- ]{2,9}$`)
	phoneCharsRe = regexp.MustCompile(`^[0-9+\-().\s]+$`)
	digitRe      = regexp.MustCompile(`[0-9]`)
)

var validate = newCheckoutValidator()

func newCheckoutValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})

	v.RegisterValidation("card_number", func(fl validator.FieldLevel) bool {
		digits := strings.ReplaceAll(strings.ReplaceAll(fl.Field().String(), " ", ""), "-", "")
		return cardDigitsRe.MatchString(digits)
	})
	v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return expiryInFuture(fl.Field().String(), time.Now())
	})
	v.RegisterValidation("card_cvv", func(fl validator.FieldLevel) bool {
		return cvvRe.MatchString(fl.Field().String())
	})
	v.RegisterValidation("postal_code", func(fl validator.FieldLevel) bool {
		return postalRe.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	// Phones are optional and arrive in every imaginable format; require
	// only plausible characters and at least seven digits.
	v.RegisterValidation("lenient_phone", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if !phoneCharsRe.MatchString(value) {
			return false
		}
		return len(digitRe.FindAllString(value, -1)) >= 7
	})
	return v
}

// expiryInFuture accepts MM/YY strings whose last day is not behind now.
func expiryInFuture(value string, now time.Time) bool {
	m := expiryRe.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	month := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	year := 2000 + int(m[2][0]-'0')*10 + int(m[2][1]-'0')

	// Valid through the final instant of the expiry month.
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.Before(endOfMonth)
}

// validateStruct runs the struct's tags and reports the first failing field,
// matching the one-error-at-a-time wizard UX.
func validateStruct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s %s", first.Field(), fieldMessage(first))).
			WithDetails(map[string]string{"field": first.Field()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email"
	case "card_number":
		return "must be 13 to 19 digits"
	case "card_expiry":
		return "must be a future MM/YY date"
	case "card_cvv":
		return "must be 3 or 4 digits"
	case "postal_code":
		return "must be a valid postal code"
	case "lenient_phone":
		return "must be a valid phone number"
	}
	return "is invalid"
}

// ValidateCustomerInfo guards the Information -> Shipping transition.
func ValidateCustomerInfo(info CustomerInfo) error {
	return validateStruct(info)
}

// ValidateShippingInfo guards the Shipping -> Payment transition.
func ValidateShippingInfo(info ShippingInfo) error {
	return validateStruct(info)
}

// ValidatePaymentInfo guards entry into Processing. Only the card method
// collects input; the other methods validate trivially.
func ValidatePaymentInfo(info PaymentInfo) error {
	if !info.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported payment method %q", info.Method)).
			WithDetails(map[string]string{"field": "method"})
	}
	return validateStruct(info)
}
