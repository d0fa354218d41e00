package shop

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCardNumber(t *testing.T) {
	assert.Equal(t, "4242424242424242", StripCardNumber("4242 4242 4242 4242"))
	assert.Equal(t, "4242424242424242", StripCardNumber(" 4242\t4242 4242 4242 "))
	assert.Equal(t, "4242424242424242", StripCardNumber("4242424242424242"))
}

func TestPaymentDetails_Validate(t *testing.T) {
	valid := func() PaymentDetails { return validDetails() }

	tests := []struct {
		name      string
		mutate    func(*PaymentDetails)
		wantField string
	}{
		{name: "valid", mutate: func(pd *PaymentDetails) {}},
		{
			name:   "spaced card number is accepted",
			mutate: func(pd *PaymentDetails) { pd.CardNumber = "4000 0000 0000 0002" },
		},
		{
			name:      "missing name",
			mutate:    func(pd *PaymentDetails) { pd.CardName = "  " },
			wantField: "card_name",
		},
		{
			name:      "short card number",
			mutate:    func(pd *PaymentDetails) { pd.CardNumber = "4242 4242" },
			wantField: "card_number",
		},
		{
			name:      "non-numeric card number",
			mutate:    func(pd *PaymentDetails) { pd.CardNumber = "4242 4242 4242 424x" },
			wantField: "card_number",
		},
		{
			name:      "expiry month out of range",
			mutate:    func(pd *PaymentDetails) { pd.ExpiryDate = "13/30" },
			wantField: "expiry_date",
		},
		{
			name:      "expiry missing slash",
			mutate:    func(pd *PaymentDetails) { pd.ExpiryDate = "1230" },
			wantField: "expiry_date",
		},
		{
			name:      "CVV too long",
			mutate:    func(pd *PaymentDetails) { pd.CVV = "1234" },
			wantField: "cvv",
		},
		{
			name:      "CVV non-numeric",
			mutate:    func(pd *PaymentDetails) { pd.CVV = "12x" },
			wantField: "cvv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := valid()
			tt.mutate(&pd)
			err := pd.Validate()

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fieldErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "expected field errors, got %T", err)
			found := false
			for _, fe := range fieldErrs {
				if fe.Field() == tt.wantField {
					found = true
				}
			}
			assert.True(t, found, "no error reported for %s", tt.wantField)
		})
	}
}
