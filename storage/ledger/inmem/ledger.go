package inmemledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/elimuhub/elimu/core/shop"
)

// purchaseLedger is an in-memory ledger used in tests and local development.
// Unlike the REST implementation it serves ListByBeneficiary from an index
// instead of filtering a full listing.
type purchaseLedger struct {
	mu            sync.RWMutex
	order         []string
	byID          map[string]shop.Purchase
	byBeneficiary map[string][]string
}

var _ shop.PurchaseLedger = (*purchaseLedger)(nil)

func NewPurchaseLedger() shop.PurchaseLedger {
	return &purchaseLedger{
		byID:          make(map[string]shop.Purchase),
		byBeneficiary: make(map[string][]string),
	}
}

func (repo *purchaseLedger) CreatePurchase(_ context.Context, np shop.NewPurchase) (shop.Purchase, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	purchase := shop.Purchase{
		ID:            uuid.NewString(),
		BuyerID:       np.BuyerID,
		BeneficiaryID: np.BeneficiaryID,
		ItemID:        np.ItemID,
		ItemType:      np.ItemType,
		Amount:        np.Amount,
		PurchaseDate:  np.PurchaseDate,
		Status:        np.Status,
	}
	repo.byID[purchase.ID] = purchase
	repo.order = append(repo.order, purchase.ID)
	repo.byBeneficiary[purchase.BeneficiaryID] = append(repo.byBeneficiary[purchase.BeneficiaryID], purchase.ID)
	return purchase, nil
}

func (repo *purchaseLedger) ListByBeneficiary(_ context.Context, beneficiaryID string) ([]shop.Purchase, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	ids := repo.byBeneficiary[beneficiaryID]
	purchases := make([]shop.Purchase, 0, len(ids))
	for _, id := range ids {
		if p, ok := repo.byID[id]; ok {
			purchases = append(purchases, p)
		}
	}
	return purchases, nil
}

func (repo *purchaseLedger) ListAll(_ context.Context) ([]shop.Purchase, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	purchases := make([]shop.Purchase, 0, len(repo.order))
	for _, id := range repo.order {
		if p, ok := repo.byID[id]; ok {
			purchases = append(purchases, p)
		}
	}
	return purchases, nil
}

func (repo *purchaseLedger) DeletePurchase(_ context.Context, _ shop.ItemType, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	purchase, ok := repo.byID[id]
	if !ok {
		return shop.ErrPurchaseNotFound
	}
	delete(repo.byID, id)

	bIDs := repo.byBeneficiary[purchase.BeneficiaryID]
	for i, bid := range bIDs {
		if bid == id {
			repo.byBeneficiary[purchase.BeneficiaryID] = append(bIDs[:i:i], bIDs[i+1:]...)
			break
		}
	}
	for i, oid := range repo.order {
		if oid == id {
			repo.order = append(repo.order[:i:i], repo.order[i+1:]...)
			break
		}
	}
	return nil
}
