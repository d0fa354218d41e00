package shop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// fakeCartRepo is a minimal in-memory CartRepository for tests.
type fakeCartRepo struct {
	lines map[string][]CartLine
}

var _ CartRepository = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{lines: make(map[string][]CartLine)}
}

func (repo *fakeCartRepo) GetLines(_ context.Context, buyerID string) ([]CartLine, error) {
	return append([]CartLine(nil), repo.lines[buyerID]...), nil
}

func (repo *fakeCartRepo) AppendLine(_ context.Context, line CartLine) error {
	for _, l := range repo.lines[line.BuyerID] {
		if l.Key() == line.Key() {
			return nil
		}
	}
	repo.lines[line.BuyerID] = append(repo.lines[line.BuyerID], line)
	return nil
}

func (repo *fakeCartRepo) RemoveLine(_ context.Context, buyerID string, key LineKey) error {
	lines := repo.lines[buyerID]
	for i, l := range lines {
		if l.Key() == key {
			repo.lines[buyerID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (repo *fakeCartRepo) ReplaceLines(_ context.Context, buyerID string, lines []CartLine) error {
	repo.lines[buyerID] = append([]CartLine(nil), lines...)
	return nil
}

func (repo *fakeCartRepo) Clear(_ context.Context, buyerID string) error {
	delete(repo.lines, buyerID)
	return nil
}

// fakeLedger is a minimal in-memory PurchaseLedger. Item IDs listed in
// failItemIDs make CreatePurchase fail, simulating partial write failures.
type fakeLedger struct {
	purchases   []Purchase
	failItemIDs map[string]bool
}

var _ PurchaseLedger = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{failItemIDs: make(map[string]bool)}
}

func (repo *fakeLedger) CreatePurchase(_ context.Context, np NewPurchase) (Purchase, error) {
	if repo.failItemIDs[np.ItemID] {
		return Purchase{}, errors.New("ledger unavailable")
	}
	purchase := Purchase{
		ID:            uuid.NewString(),
		BuyerID:       np.BuyerID,
		BeneficiaryID: np.BeneficiaryID,
		ItemID:        np.ItemID,
		ItemType:      np.ItemType,
		Amount:        np.Amount,
		PurchaseDate:  np.PurchaseDate,
		Status:        np.Status,
	}
	repo.purchases = append(repo.purchases, purchase)
	return purchase, nil
}

func (repo *fakeLedger) ListByBeneficiary(_ context.Context, beneficiaryID string) ([]Purchase, error) {
	var out []Purchase
	for _, p := range repo.purchases {
		if p.BeneficiaryID == beneficiaryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (repo *fakeLedger) ListAll(_ context.Context) ([]Purchase, error) {
	return append([]Purchase(nil), repo.purchases...), nil
}

func (repo *fakeLedger) DeletePurchase(_ context.Context, _ ItemType, id string) error {
	for i, p := range repo.purchases {
		if p.ID == id {
			repo.purchases = append(repo.purchases[:i:i], repo.purchases[i+1:]...)
			return nil
		}
	}
	return ErrPurchaseNotFound
}

// fakeGateway approves or declines every payment, or fails outright.
type fakeGateway struct {
	accept bool
	err    error

	entered chan struct{} // when set, closed once a payment starts
	block   chan struct{} // when set, ProcessPayment waits until closed
}

var _ PaymentGateway = (*fakeGateway)(nil)

func (gw *fakeGateway) ProcessPayment(_ context.Context, _ string, _ PaymentDetails) (PaymentResult, error) {
	if gw.entered != nil {
		close(gw.entered)
		gw.entered = nil
	}
	if gw.block != nil {
		<-gw.block
	}
	if gw.err != nil {
		return PaymentResult{}, gw.err
	}
	if !gw.accept {
		return PaymentResult{}, nil
	}
	return PaymentResult{Accepted: true, TransactionID: uuid.NewString()}, nil
}

func tutorial(id string, price float64) Item {
	return Item{ID: id, Type: ItemTypeTutorial, Title: "Tutorial " + id, Price: price}
}

func recordedLesson(id string, price float64) Item {
	return Item{ID: id, Type: ItemTypeRecordedLesson, Title: "Lesson " + id, Price: price}
}

func completedPurchase(buyerID, beneficiaryID, itemID string, itemType ItemType) Purchase {
	return Purchase{
		ID:            uuid.NewString(),
		BuyerID:       buyerID,
		BeneficiaryID: beneficiaryID,
		ItemID:        itemID,
		ItemType:      itemType,
		Amount:        10,
		PurchaseDate:  time.Now().UTC(),
		Status:        StatusCompleted,
	}
}
