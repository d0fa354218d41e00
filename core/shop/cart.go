package shop

import (
	"context"
	"sync"
	"time"
)

// CartObserver is notified with the buyer ID after every cart mutation.
// Cart-displaying views re-fetch on receipt; reads are never served from a
// listener's own stale copy.
type CartObserver func(buyerID string)

// CartService accumulates prospective purchase lines per buyer.
//
// A cart holds at most one line per (itemID, itemType, beneficiaryID); adding
// an already-present line is a no-op and adding an item the beneficiary
// already owns fails with ErrAlreadyOwned.
type CartService struct {
	repo CartRepository
	ent  *EntitlementService

	mu      sync.Mutex
	nextTok int
	subs    map[int]CartObserver
}

func NewCartService(repo CartRepository, ent *EntitlementService) *CartService {
	return &CartService{
		repo: repo,
		ent:  ent,
		subs: make(map[int]CartObserver),
	}
}

// Subscribe registers an observer and returns a token for Unsubscribe.
func (svc *CartService) Subscribe(obs CartObserver) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.nextTok++
	svc.subs[svc.nextTok] = obs
	return svc.nextTok
}

func (svc *CartService) Unsubscribe(token int) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.subs, token)
}

func (svc *CartService) notify(buyerID string) {
	svc.mu.Lock()
	obs := make([]CartObserver, 0, len(svc.subs))
	for _, o := range svc.subs {
		obs = append(obs, o)
	}
	svc.mu.Unlock()
	for _, o := range obs {
		o(buyerID)
	}
}

// Add constructs a CartLine from `item`, snapshotting its price, and inserts
// it into the buyer's cart. Adding a line already in the cart returns the
// existing line unchanged.
func (svc *CartService) Add(ctx context.Context, buyerID string, item Item, beneficiaryID string) (CartLine, error) {
	if beneficiaryID == "" {
		return CartLine{}, ErrBeneficiaryRequired
	}
	if !item.Type.Valid() || item.ID == "" || item.Price <= 0 {
		return CartLine{}, ErrInvalidItem
	}

	owned, err := svc.ent.IsOwned(ctx, beneficiaryID, item.ID)
	if err != nil {
		return CartLine{}, err
	}
	if owned {
		return CartLine{}, ErrAlreadyOwned
	}

	key := LineKey{ItemID: item.ID, ItemType: item.Type, BeneficiaryID: beneficiaryID}
	lines, err := svc.repo.GetLines(ctx, buyerID)
	if err != nil {
		return CartLine{}, err
	}
	for _, line := range lines {
		if line.Key() == key {
			return line, nil // idempotent add
		}
	}

	line := CartLine{
		ItemID:        item.ID,
		ItemType:      item.Type,
		Title:         item.Title,
		BuyerID:       buyerID,
		BeneficiaryID: beneficiaryID,
		UnitPrice:     item.Price,
		AddedAt:       time.Now().UTC(),
	}
	if err := svc.repo.AppendLine(ctx, line); err != nil {
		return CartLine{}, err
	}
	svc.notify(buyerID)
	return line, nil
}

// Remove deletes the matching line. Removing an absent line is not an error.
func (svc *CartService) Remove(ctx context.Context, buyerID, itemID string, itemType ItemType, beneficiaryID string) error {
	key := LineKey{ItemID: itemID, ItemType: itemType, BeneficiaryID: beneficiaryID}
	if err := svc.repo.RemoveLine(ctx, buyerID, key); err != nil {
		if err == ErrLineNotFound {
			return nil
		}
		return err
	}
	svc.notify(buyerID)
	return nil
}

// Items returns the buyer's cart lines in insertion order.
func (svc *CartService) Items(ctx context.Context, buyerID string) ([]CartLine, error) {
	return svc.repo.GetLines(ctx, buyerID)
}

// Total recomputes the sum of unit prices over the buyer's current lines.
func (svc *CartService) Total(ctx context.Context, buyerID string) (float64, error) {
	lines, err := svc.repo.GetLines(ctx, buyerID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, line := range lines {
		total += line.UnitPrice
	}
	return total, nil
}

// Clear empties the buyer's cart.
func (svc *CartService) Clear(ctx context.Context, buyerID string) error {
	if err := svc.repo.Clear(ctx, buyerID); err != nil {
		return err
	}
	svc.notify(buyerID)
	return nil
}

// retain replaces the buyer's cart with `lines`, preserving order.
// Used by checkout to keep only the lines whose ledger write failed.
func (svc *CartService) retain(ctx context.Context, buyerID string, lines []CartLine) error {
	if err := svc.repo.ReplaceLines(ctx, buyerID, lines); err != nil {
		return err
	}
	svc.notify(buyerID)
	return nil
}
