package shop

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/user"
)

// CheckoutService drains a buyer's cart through the payment gateway into the
// purchase ledger.
//
// The flow is a transaction script: validate, snapshot lines, authorize
// payment, then one ledger write per line. A decline leaves the cart
// untouched and creates nothing. A partial ledger failure after payment
// keeps only the failed lines in the cart so the caller can retry exactly
// what was not recorded; it is surfaced as ErrLedgerWrite, never as a
// decline.
type CheckoutService struct {
	cart    *CartService
	gateway PaymentGateway
	ledger  PurchaseLedger
	mailSvc core.EmailService
	logger  core.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewCheckoutService(
	cart *CartService,
	gateway PaymentGateway,
	ledger PurchaseLedger,
	mailSvc core.EmailService,
	logger core.Logger,
) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		gateway:  gateway,
		ledger:   ledger,
		mailSvc:  mailSvc,
		logger:   logger,
		inFlight: make(map[string]bool),
	}
}

func (svc *CheckoutService) acquire(buyerID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.inFlight[buyerID] {
		return false
	}
	svc.inFlight[buyerID] = true
	return true
}

func (svc *CheckoutService) release(buyerID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.inFlight, buyerID)
}

// Checkout executes the purchase flow for the buyer's whole cart.
func (svc *CheckoutService) Checkout(ctx context.Context, buyer user.User, details PaymentDetails) (CheckoutResult, error) {
	if err := details.Validate(); err != nil {
		return CheckoutResult{}, err
	}

	if !svc.acquire(buyer.ID) {
		return CheckoutResult{}, ErrCheckoutInFlight
	}
	defer svc.release(buyer.ID)

	// snapshot the cart before suspending on the gateway
	lines, err := svc.cart.Items(ctx, buyer.ID)
	if err != nil {
		return CheckoutResult{}, errors.Wrap(err, "reading cart")
	}
	if len(lines) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	payment, err := svc.gateway.ProcessPayment(ctx, buyer.ID, details)
	if err != nil {
		return CheckoutResult{}, errors.Wrap(ErrPaymentGateway, err.Error())
	}
	if !payment.Accepted {
		// cart stays byte-for-byte as it was
		return CheckoutResult{Declined: true}, nil
	}

	now := time.Now().UTC()
	purchases := make([]Purchase, 0, len(lines))
	var failed []FailedLine
	var failedLines []CartLine
	for _, line := range lines {
		purchase, err := svc.ledger.CreatePurchase(ctx, NewPurchase{
			BuyerID:       line.BuyerID,
			BeneficiaryID: line.BeneficiaryID,
			ItemID:        line.ItemID,
			ItemType:      line.ItemType,
			Amount:        line.UnitPrice,
			PurchaseDate:  now,
			Status:        StatusCompleted,
		})
		if err != nil {
			failed = append(failed, FailedLine{Line: line, Error: err.Error()})
			failedLines = append(failedLines, line)
			continue
		}
		purchases = append(purchases, purchase)
	}

	if len(failed) > 0 {
		// money was captured: retain only the unrecorded lines for retry
		if rerr := svc.cart.retain(ctx, buyer.ID, failedLines); rerr != nil {
			svc.logger.Error(fmt.Sprintf("retaining failed cart lines for buyer %s: %v", buyer.ID, rerr), rerr)
		}
		result := CheckoutResult{
			TransactionID: payment.TransactionID,
			Purchases:     purchases,
			FailedLines:   failed,
		}
		return result, ErrLedgerWrite
	}

	if err := svc.cart.Clear(ctx, buyer.ID); err != nil {
		svc.logger.Error(fmt.Sprintf("clearing cart for buyer %s: %v", buyer.ID, err), err)
	}

	svc.sendReceipt(buyer, payment.TransactionID, purchases)

	return CheckoutResult{
		Success:       true,
		TransactionID: payment.TransactionID,
		Purchases:     purchases,
	}, nil
}

const receiptTemplateName = "shop/receipt"

func init() {
	core.RegisterEmailTemplate(receiptTemplateName, `Thank you for your purchase!

Transaction: {{.Data.TransactionID}}
{{range .Data.Purchases}}- {{.ItemID}} ({{.ItemType}}) for {{.BeneficiaryID}}: {{printf "%.2f" .Amount}}
{{end}}Total: {{printf "%.2f" .Data.Total}}

Your items are now available in your library: {{.FrontendBaseURL}}/library
`)
}

type receiptData struct {
	TransactionID string
	Purchases     []Purchase
	Total         float64
}

func (svc *CheckoutService) sendReceipt(buyer user.User, txnID string, purchases []Purchase) {
	if svc.mailSvc == nil || buyer.Email == "" {
		return
	}
	var total float64
	for _, p := range purchases {
		total += p.Amount
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: buyer.Name, Address: buyer.Email}},
		Subject:      "Your purchase receipt",
		TemplateName: receiptTemplateName,
		TemplateData: receiptData{TransactionID: txnID, Purchases: purchases, Total: total},
	})
}
