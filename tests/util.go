package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/elimuhub/elimu/core/shop"
	"github.com/elimuhub/elimu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	childIDs []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		ChildIDs:  childIDs,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreatePurchase(
	t *testing.T,
	ledger shop.PurchaseLedger,
	buyerID, beneficiaryID, itemID string,
	itemType shop.ItemType,
	amount float64,
	status shop.PurchaseStatus,
) shop.Purchase {
	t.Helper()

	purchase, err := ledger.CreatePurchase(context.Background(), shop.NewPurchase{
		BuyerID:       buyerID,
		BeneficiaryID: beneficiaryID,
		ItemID:        itemID,
		ItemType:      itemType,
		Amount:        amount,
		PurchaseDate:  time.Now().UTC(),
		Status:        status,
	})
	if err != nil {
		t.Fatalf("CreatePurchase() failed: %v", err)
	}
	return purchase
}

// Tutorial returns a sellable tutorial item.
func Tutorial(id, title string, price float64) shop.Item {
	return shop.Item{ID: id, Type: shop.ItemTypeTutorial, Title: title, Price: price}
}

// RecordedLesson returns a sellable recorded lesson item.
func RecordedLesson(id, title string, price float64) shop.Item {
	return shop.Item{ID: id, Type: shop.ItemTypeRecordedLesson, Title: title, Price: price}
}

// ValidPaymentDetails returns card details that pass structural validation
// and are accepted by the dummy gateway.
func ValidPaymentDetails() shop.PaymentDetails {
	return shop.PaymentDetails{
		CardName:   "Jane Buyer",
		CardNumber: "4242 4242 4242 4242",
		ExpiryDate: "12/30",
		CVV:        "123",
	}
}
