package paymentsvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/shop"
)

// dummyGateway is the stand-in authorization call: it accepts everything
// except card numbers on the configured decline list. Real payment-network
// integration sits behind the same shop.PaymentGateway boundary.
type dummyGateway struct {
	declined map[string]bool
	logger   core.Logger
}

var _ shop.PaymentGateway = (*dummyGateway)(nil)

func NewDummyGateway(logger core.Logger) shop.PaymentGateway {
	declined := make(map[string]bool, len(core.Conf.Payment.DeclinedCards))
	for _, num := range core.Conf.Payment.DeclinedCards {
		declined[shop.StripCardNumber(num)] = true
	}
	return &dummyGateway{declined: declined, logger: logger}
}

func (gw *dummyGateway) ProcessPayment(_ context.Context, buyerID string, details shop.PaymentDetails) (shop.PaymentResult, error) {
	if gw.declined[shop.StripCardNumber(details.CardNumber)] {
		gw.logger.Info(fmt.Sprintf("payment declined for buyer %s", buyerID))
		return shop.PaymentResult{}, nil
	}
	txnID := uuid.NewString()
	gw.logger.Info(fmt.Sprintf("payment authorized for buyer %s: txn %s", buyerID, txnID))
	return shop.PaymentResult{Accepted: true, TransactionID: txnID}, nil
}
