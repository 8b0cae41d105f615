package checkout

import (
	"fmt"
	"regexp"

	"bilhete/models"
)

// ValidationError is a client-side rejection: the submission is blocked
// before any network call is made.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Mobile-money numbers are exactly 9 digits on a carrier-reserved prefix.
var phonePattern = regexp.MustCompile(`^(84|85)\d{7}$`)

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return &ValidationError{Field: "phoneNumber", Msg: "phone number must be 9 digits starting with 84 or 85"}
	}
	return nil
}

// validateRequest enforces the method-specific entry guard of the checkout
// state machine. Exactly one payment variant must be active.
func validateRequest(req models.PaymentRequest) error {
	switch req.Method {
	case models.MethodMpesa:
		if err := ValidatePhone(req.PhoneNumber); err != nil {
			return err
		}
		if req.ProofImage != "" {
			return &ValidationError{Field: "proofImage", Msg: "proof image does not apply to mobile-money"}
		}
	case models.MethodTransfer:
		if req.ProofImage == "" {
			return &ValidationError{Field: "proofImage", Msg: "a proof of transfer image is required"}
		}
		if req.PhoneNumber != "" {
			return &ValidationError{Field: "phoneNumber", Msg: "phone number does not apply to bank transfer"}
		}
	default:
		return &ValidationError{Field: "paymentMethod", Msg: "unsupported payment method"}
	}
	return nil
}
