package shop

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/elimuhub/elimu/core"
)

var (
	cardNumberTag  = "cardnumber"
	cardNumberText = "card number must be exactly 16 digits"
	digitsRegex    = regexp.MustCompile(`^\d{16}$`)

	cardExpiryTag   = "cardexpiry"
	cardExpiryText  = "expiry date must match MM/YY"
	cardExpiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

	cardCVVTag   = "cardcvv"
	cardCVVText  = "CVV must be exactly 3 digits"
	cardCVVRegex = regexp.MustCompile(`^\d{3}$`)
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(cardNumberTag, cardNumberValidation)
	core.RegisterCustomTranslation(cardNumberTag, cardNumberText)

	_ = core.Validate.RegisterValidation(cardExpiryTag, cardExpiryValidation)
	core.RegisterCustomTranslation(cardExpiryTag, cardExpiryText)

	_ = core.Validate.RegisterValidation(cardCVVTag, cardCVVValidation)
	core.RegisterCustomTranslation(cardCVVTag, cardCVVText)
}

// StripCardNumber removes all whitespace from a card number.
func StripCardNumber(num string) string {
	return strings.Join(strings.Fields(num), "")
}

// Validate applies structural checks to the card fields. Failures are
// reported per-field; the gateway is never called on invalid input.
func (pd *PaymentDetails) Validate() error {
	pd.CardName = core.CleanString(pd.CardName)
	pd.CardNumber = StripCardNumber(pd.CardNumber)
	pd.ExpiryDate = core.CleanString(pd.ExpiryDate)
	pd.CVV = core.CleanString(pd.CVV)
	return core.Validate.Struct(pd)
}

// Custom Validators

// cardNumberValidation checks for exactly 16 digits after whitespace removal.
func cardNumberValidation(fl validator.FieldLevel) bool {
	return digitsRegex.MatchString(StripCardNumber(fl.Field().String()))
}

func cardExpiryValidation(fl validator.FieldLevel) bool {
	return cardExpiryRegex.MatchString(fl.Field().String())
}

func cardCVVValidation(fl validator.FieldLevel) bool {
	return cardCVVRegex.MatchString(fl.Field().String())
}
