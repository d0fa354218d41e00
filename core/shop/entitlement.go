package shop

import "context"

// EntitlementService answers "which items does this beneficiary already own".
// Entitlement is a pure projection over the ledger: a beneficiary owns an
// item iff a COMPLETED purchase exists for the pair. There is no mutation
// capability and no cache; the ledger is re-read on every call so that
// answers stay correct across checkout boundaries.
type EntitlementService struct {
	ledger PurchaseLedger
}

func NewEntitlementService(ledger PurchaseLedger) *EntitlementService {
	return &EntitlementService{ledger: ledger}
}

// OwnedItemIDs returns the set of item IDs the beneficiary is entitled to.
func (svc *EntitlementService) OwnedItemIDs(ctx context.Context, beneficiaryID string) (map[string]struct{}, error) {
	purchases, err := svc.ledger.ListByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(purchases))
	for _, p := range purchases {
		if p.Status == StatusCompleted {
			owned[p.ItemID] = struct{}{}
		}
	}
	return owned, nil
}

// IsOwned reports whether the beneficiary is entitled to the item.
func (svc *EntitlementService) IsOwned(ctx context.Context, beneficiaryID, itemID string) (bool, error) {
	owned, err := svc.OwnedItemIDs(ctx, beneficiaryID)
	if err != nil {
		return false, err
	}
	_, ok := owned[itemID]
	return ok, nil
}
