package shop

import (
	"context"
	"time"
)

// ItemType is the closed set of purchasable catalog item kinds.
type ItemType string

const (
	ItemTypeTutorial       ItemType = "tutorial"
	ItemTypeRecordedLesson ItemType = "recorded_lesson"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeTutorial || t == ItemTypeRecordedLesson
}

// Item is the catalog-side view of a purchasable item. The catalog itself is
// managed elsewhere; carts only need the identity, kind and current price.
type Item struct {
	ID    string   `json:"id"`
	Type  ItemType `json:"type"`
	Title string   `json:"title"`
	Price float64  `json:"price"`
}

// LineKey identifies a cart line: at most one line per key exists in a cart.
type LineKey struct {
	ItemID        string
	ItemType      ItemType
	BeneficiaryID string
}

// CartLine is one prospective purchase. UnitPrice is the price snapshot taken
// at add time; AddedAt is immutable once the line is created.
type CartLine struct {
	ItemID        string    `json:"item_id"`
	ItemType      ItemType  `json:"item_type"`
	Title         string    `json:"title"`
	BuyerID       string    `json:"buyer_id"`
	BeneficiaryID string    `json:"beneficiary_id"`
	UnitPrice     float64   `json:"unit_price"`
	AddedAt       time.Time `json:"added_at"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ItemID: l.ItemID, ItemType: l.ItemType, BeneficiaryID: l.BeneficiaryID}
}

// PurchaseStatus is the purchase lifecycle state.
//
// PENDING is reserved for asynchronous payment providers and is not produced
// by the synchronous checkout flow; CANCELLED is only reachable through an
// administrative action.
type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "PENDING"
	StatusCompleted PurchaseStatus = "COMPLETED"
	StatusFailed    PurchaseStatus = "FAILED"
	StatusCancelled PurchaseStatus = "CANCELLED"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func (s PurchaseStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Purchase is one durable purchase record in the ledger.
type Purchase struct {
	ID            string         `json:"id"`
	BuyerID       string         `json:"buyer_id"`
	BeneficiaryID string         `json:"beneficiary_id"`
	ItemID        string         `json:"item_id"`
	ItemType      ItemType       `json:"item_type"`
	Amount        float64        `json:"amount"`
	PurchaseDate  time.Time      `json:"purchase_date"`
	Status        PurchaseStatus `json:"status"`
}

// NewPurchase is a purchase-creation request submitted to the ledger.
type NewPurchase struct {
	BuyerID       string         `json:"buyer_id"`
	BeneficiaryID string         `json:"beneficiary_id"`
	ItemID        string         `json:"item_id"`
	ItemType      ItemType       `json:"item_type"`
	Amount        float64        `json:"amount"`
	PurchaseDate  time.Time      `json:"purchase_date"`
	Status        PurchaseStatus `json:"status"`
}

// PaymentDetails is the card data submitted at checkout. Only structural
// format checks apply; the gateway is the authority on acceptance.
type PaymentDetails struct {
	CardName   string `json:"card_name" validate:"required"`
	CardNumber string `json:"card_number" validate:"required,cardnumber"`
	ExpiryDate string `json:"expiry_date" validate:"required,cardexpiry"`
	CVV        string `json:"cvv" validate:"required,cardcvv"`
}

// PaymentResult is the gateway's answer. Accepted=false is a decline, not an
// error; transport failures are returned as errors instead.
type PaymentResult struct {
	Accepted      bool   `json:"accepted"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// FailedLine reports a cart line whose purchase record could not be created
// after payment was captured.
type FailedLine struct {
	Line  CartLine `json:"line"`
	Error string   `json:"error"`
}

// CheckoutResult is the outcome of a checkout attempt.
type CheckoutResult struct {
	Success       bool         `json:"success"`
	Declined      bool         `json:"declined,omitempty"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Purchases     []Purchase   `json:"purchases,omitempty"`
	FailedLines   []FailedLine `json:"failed_lines,omitempty"`
}

type (
	// CartRepository stores per-buyer cart lines in insertion order.
	CartRepository interface {
		GetLines(ctx context.Context, buyerID string) ([]CartLine, error)
		// AppendLine adds a line to the end of the buyer's cart. Appending a
		// line whose key is already present is a no-op.
		AppendLine(ctx context.Context, line CartLine) error
		// RemoveLine removes the matching line; it fails with ErrLineNotFound
		// when absent.
		RemoveLine(ctx context.Context, buyerID string, key LineKey) error
		// ReplaceLines atomically replaces the buyer's cart with `lines`,
		// preserving the given order.
		ReplaceLines(ctx context.Context, buyerID string, lines []CartLine) error
		Clear(ctx context.Context, buyerID string) error
	}

	// PurchaseLedger is the authoritative, remote store of purchase records.
	PurchaseLedger interface {
		CreatePurchase(ctx context.Context, np NewPurchase) (Purchase, error)
		// ListByBeneficiary returns all purchases whose beneficiary matches.
		// Implementations without a server-side filter may list everything
		// and filter client-side.
		ListByBeneficiary(ctx context.Context, beneficiaryID string) ([]Purchase, error)
		ListAll(ctx context.Context) ([]Purchase, error)
		// DeletePurchase is administrative only; it fails with
		// ErrPurchaseNotFound when no such record exists.
		DeletePurchase(ctx context.Context, itemType ItemType, id string) error
	}

	// PaymentGateway authorizes payments. It is an opaque boundary.
	PaymentGateway interface {
		ProcessPayment(ctx context.Context, buyerID string, details PaymentDetails) (PaymentResult, error)
	}
)
