package shop

import "errors"

var (
	// cart errors
	ErrAlreadyOwned        = errors.New("beneficiary already owns this item")
	ErrBeneficiaryRequired = errors.New("a beneficiary is required")
	ErrInvalidItem         = errors.New("item is not purchasable")
	ErrLineNotFound        = errors.New("cart line not found")

	// checkout errors
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCheckoutInFlight = errors.New("a checkout is already in progress for this buyer")
	ErrPaymentGateway   = errors.New("payment gateway unavailable")
	// ErrLedgerWrite means payment was captured but one or more purchase
	// records could not be created. It must never be conflated with a
	// decline: money moved and the failed lines are retained for retry.
	ErrLedgerWrite = errors.New("purchase recording failed after payment")

	// ledger errors
	ErrPurchaseNotFound = errors.New("purchase not found")
)
