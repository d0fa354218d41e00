package restledger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core/shop"
)

// Per-item-type ledger resources. The backend keeps tutorial and recorded
// lesson purchases in separate collections.
var resources = map[shop.ItemType]string{
	shop.ItemTypeTutorial:       "tutorial-purchases",
	shop.ItemTypeRecordedLesson: "recorded-lesson-purchases",
}

// purchaseLedger talks to the remote purchase ledger over its REST contract:
// POST /{resource}, GET /{resource}, DELETE /{resource}/{id}.
//
// The backend exposes no server-side beneficiary filter, so
// ListByBeneficiary lists everything and filters client-side.
type purchaseLedger struct {
	baseURL string
	client  *http.Client
}

var _ shop.PurchaseLedger = (*purchaseLedger)(nil)

func NewPurchaseLedger(baseURL string, timeout time.Duration) shop.PurchaseLedger {
	return &purchaseLedger{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// purchaseRecord is the ledger's wire format. The item type is implied by
// the resource and repopulated client-side.
type purchaseRecord struct {
	ID            string  `json:"id,omitempty"`
	BuyerID       string  `json:"buyer_id"`
	BeneficiaryID string  `json:"beneficiary_id"`
	ItemID        string  `json:"item_id"`
	Amount        float64 `json:"amount"`
	PurchaseDate  string  `json:"purchase_date"`
	Status        string  `json:"status"`
}

func (rec purchaseRecord) toPurchase(itemType shop.ItemType) (shop.Purchase, error) {
	date, err := time.Parse(time.RFC3339, rec.PurchaseDate)
	if err != nil {
		return shop.Purchase{}, errors.Wrapf(err, "parsing purchase date %q", rec.PurchaseDate)
	}
	return shop.Purchase{
		ID:            rec.ID,
		BuyerID:       rec.BuyerID,
		BeneficiaryID: rec.BeneficiaryID,
		ItemID:        rec.ItemID,
		ItemType:      itemType,
		Amount:        rec.Amount,
		PurchaseDate:  date,
		Status:        shop.PurchaseStatus(rec.Status),
	}, nil
}

func (repo *purchaseLedger) url(itemType shop.ItemType, parts ...string) (string, error) {
	resource, ok := resources[itemType]
	if !ok {
		return "", errors.Errorf("no ledger resource for item type %q", itemType)
	}
	url := repo.baseURL + "/" + resource
	for _, p := range parts {
		url += "/" + p
	}
	return url, nil
}

func (repo *purchaseLedger) do(req *http.Request, out interface{}, wantCodes ...int) error {
	req.Header.Set("Content-Type", "application/json")
	res, err := repo.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return shop.ErrPurchaseNotFound
	}
	var want bool
	for _, code := range wantCodes {
		if res.StatusCode == code {
			want = true
			break
		}
	}
	if !want {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return errors.Errorf("ledger returned %d: %s", res.StatusCode, body)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func (repo *purchaseLedger) CreatePurchase(ctx context.Context, np shop.NewPurchase) (shop.Purchase, error) {
	url, err := repo.url(np.ItemType)
	if err != nil {
		return shop.Purchase{}, err
	}

	body, err := json.Marshal(purchaseRecord{
		BuyerID:       np.BuyerID,
		BeneficiaryID: np.BeneficiaryID,
		ItemID:        np.ItemID,
		Amount:        np.Amount,
		PurchaseDate:  np.PurchaseDate.UTC().Format(time.RFC3339),
		Status:        string(np.Status),
	})
	if err != nil {
		return shop.Purchase{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return shop.Purchase{}, err
	}

	var created purchaseRecord
	if err := repo.do(req, &created, http.StatusCreated, http.StatusOK); err != nil {
		return shop.Purchase{}, errors.Wrap(err, "creating purchase")
	}
	return created.toPurchase(np.ItemType)
}

func (repo *purchaseLedger) list(ctx context.Context, itemType shop.ItemType) ([]shop.Purchase, error) {
	url, err := repo.url(itemType)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var records []purchaseRecord
	if err := repo.do(req, &records, http.StatusOK); err != nil {
		return nil, errors.Wrapf(err, "listing %s", resources[itemType])
	}

	purchases := make([]shop.Purchase, 0, len(records))
	for _, rec := range records {
		p, err := rec.toPurchase(itemType)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, nil
}

func (repo *purchaseLedger) ListAll(ctx context.Context) ([]shop.Purchase, error) {
	var all []shop.Purchase
	for itemType := range resources {
		purchases, err := repo.list(ctx, itemType)
		if err != nil {
			return nil, err
		}
		all = append(all, purchases...)
	}
	return all, nil
}

// ListByBeneficiary filters the full listing client-side; see the type doc.
func (repo *purchaseLedger) ListByBeneficiary(ctx context.Context, beneficiaryID string) ([]shop.Purchase, error) {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := all[:0]
	for _, p := range all {
		if p.BeneficiaryID == beneficiaryID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (repo *purchaseLedger) DeletePurchase(ctx context.Context, itemType shop.ItemType, id string) error {
	url, err := repo.url(itemType, id)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if err := repo.do(req, nil, http.StatusOK, http.StatusNoContent); err != nil {
		if err == shop.ErrPurchaseNotFound {
			return err
		}
		return errors.Wrap(err, "deleting purchase")
	}
	return nil
}
