package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/elimuhub/elimu/apps/api/echo"
	"github.com/elimuhub/elimu/core/shop"
	"github.com/elimuhub/elimu/core/user"
	testutil "github.com/elimuhub/elimu/tests"
)

type shopFixture struct {
	student user.User
	child   user.User
	parent  user.User
	tutor   user.User
	admin   user.User
}

func setupShop(t *testing.T) shopFixture {
	t.Helper()
	resetState(t)

	child := testutil.CreateUser(t, usrRepo, "Kid", "kiddo01", "kid@test.cd", "", []string{user.RoleStudent}, nil, true)
	return shopFixture{
		student: testutil.CreateUser(t, usrRepo, "Hero", "heroic1", "hero@test.cd", "", []string{user.RoleStudent}, nil, true),
		child:   child,
		parent:  testutil.CreateUser(t, usrRepo, "Mama", "mamamo1", "mama@test.cd", "", []string{user.RoleParent}, []string{child.ID}, true),
		tutor:   testutil.CreateUser(t, usrRepo, "Coach", "coach01", "coach@test.cd", "", []string{user.RoleTutor}, nil, true),
		admin:   testutil.CreateUser(t, usrRepo, "Admin", "admin01", "admin@test.cd", "", []string{user.RoleAdmin}, nil, true),
	}
}

func addToCartBody(t *testing.T, itemID string, itemType shop.ItemType, price float64, beneficiaryID string) []byte {
	return marshalObj(t, echoapi.AddToCartRequest{
		ItemID:        itemID,
		ItemType:      itemType,
		Title:         "Item " + itemID,
		UnitPrice:     price,
		BeneficiaryID: beneficiaryID,
	})
}

func Test_shopApi_cart(t *testing.T) {
	fix := setupShop(t)
	studentToken := getToken(t, fix.student)
	parentToken := getToken(t, fix.parent)

	// the student already owns this item
	testutil.CreatePurchase(t, ledger, fix.student.ID, fix.student.ID, "owned1", shop.ItemTypeTutorial, 25, shop.StatusCompleted)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/shop/cart",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "tutors cannot buy", method: http.MethodGet, path: "/v1/shop/cart", token: getToken(t, fix.tutor),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "admins cannot buy", method: http.MethodGet, path: "/v1/shop/cart", token: getToken(t, fix.admin),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "empty cart", method: http.MethodGet, path: "/v1/shop/cart", token: studentToken,
			wantCode: http.StatusOK, wantData: marshalObj(t, echoapi.CartResponse{Lines: []shop.CartLine{}, Total: 0}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/shop/cart/items", token: studentToken,
			body:     marshalObj(t, echoapi.AddToCartRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"item_id":    "this field is required",
				"item_type":  "this field is required",
				"unit_price": "this field is required",
			}),
		},
		{
			name: "negative price", method: http.MethodPost, path: "/v1/shop/cart/items", token: studentToken,
			body:     addToCartBody(t, "tut1", shop.ItemTypeTutorial, -5, ""),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"unit_price": "unit_price must be greater than 0"}),
		},
		{
			name: "unknown item type", method: http.MethodPost, path: "/v1/shop/cart/items", token: studentToken,
			body:     addToCartBody(t, "tut1", "course", 25, ""),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: shop.ErrInvalidItem.Error()}),
		},
		{
			name: "already owned", method: http.MethodPost, path: "/v1/shop/cart/items", token: studentToken,
			body:     addToCartBody(t, "owned1", shop.ItemTypeTutorial, 25, ""),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: shop.ErrAlreadyOwned.Error()}),
		},
		{
			name: "student defaults to self", method: http.MethodPost, path: "/v1/shop/cart/items", token: studentToken,
			body: addToCartBody(t, "tut1", shop.ItemTypeTutorial, 25, ""), wantCode: http.StatusCreated,
			extra: fix.student.ID, // expected beneficiary
		},
		{
			name: "student cannot buy for someone else", method: http.MethodPost, path: "/v1/shop/cart/items", token: studentToken,
			body:     addToCartBody(t, "tut1", shop.ItemTypeTutorial, 25, fix.child.ID),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "parent must name a child", method: http.MethodPost, path: "/v1/shop/cart/items", token: parentToken,
			body:     addToCartBody(t, "tut1", shop.ItemTypeTutorial, 25, ""),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: shop.ErrBeneficiaryRequired.Error()}),
		},
		{
			name: "parent cannot buy for an unregistered child", method: http.MethodPost, path: "/v1/shop/cart/items", token: parentToken,
			body:     addToCartBody(t, "tut1", shop.ItemTypeTutorial, 25, fix.student.ID),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "parent buys for a registered child", method: http.MethodPost, path: "/v1/shop/cart/items", token: parentToken,
			body: addToCartBody(t, "les1", shop.ItemTypeRecordedLesson, 10, fix.child.ID), wantCode: http.StatusCreated,
			extra: fix.child.ID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var line shop.CartLine
				if err := json.Unmarshal(rec.Body.Bytes(), &line); err != nil {
					t.Fatalf("unmarshalling CartLine: %v", err)
				}
				if want := tt.extra.(string); line.BeneficiaryID != want {
					t.Errorf("beneficiary = %s; want %s", line.BeneficiaryID, want)
				}
				if line.AddedAt.IsZero() {
					t.Error("addedAt not set")
				}
			}
		})
	}

	t.Run("re-adding keeps the original snapshot", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/shop/cart/items", studentToken,
			addToCartBody(t, "tut1", shop.ItemTypeTutorial, 99, ""))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusCreated)
		}
		var line shop.CartLine
		if err := json.Unmarshal(rec.Body.Bytes(), &line); err != nil {
			t.Fatalf("unmarshalling CartLine: %v", err)
		}
		if line.UnitPrice != 25 {
			t.Errorf("unitPrice = %v; want the original 25", line.UnitPrice)
		}
	})

	t.Run("cart holds one line with a recomputed total", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/shop/cart", studentToken)
		app.ServeHTTP(rec, req)
		var res echoapi.CartResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling CartResponse: %v", err)
		}
		if len(res.Lines) != 1 {
			t.Fatalf("lines = %d; want 1", len(res.Lines))
		}
		if res.Total != 25 {
			t.Errorf("total = %v; want 25", res.Total)
		}
	})

	t.Run("remove accepts the line key as query params", func(t *testing.T) {
		v := make(url.Values)
		v.Add("item_id", "tut1")
		v.Add("item_type", string(shop.ItemTypeTutorial))
		req, rec := newAuthRequest(http.MethodDelete, "/v1/shop/cart/items?"+v.Encode(), studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		// removal is idempotent
		req, rec = newAuthRequest(http.MethodDelete, "/v1/shop/cart/items?"+v.Encode(), studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/shop/cart", parentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/shop/cart", parentToken)
		app.ServeHTTP(rec, req)
		var res echoapi.CartResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling CartResponse: %v", err)
		}
		if len(res.Lines) != 0 {
			t.Errorf("lines = %d; want 0", len(res.Lines))
		}
	})
}

func Test_shopApi_checkout(t *testing.T) {
	fix := setupShop(t)
	studentToken := getToken(t, fix.student)

	payment := func(cardNumber string) []byte {
		pd := testutil.ValidPaymentDetails()
		if cardNumber != "" {
			pd.CardNumber = cardNumber
		}
		return marshalObj(t, pd)
	}
	addItem := func(t *testing.T, body []byte) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/shop/cart/items", studentToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("addItem() code = %v; body %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("empty cart", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/shop/checkout", studentToken, payment(""))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: shop.ErrEmptyCart.Error()}),
		}, rec)
	})

	t.Run("invalid card details fail per field", func(t *testing.T) {
		addItem(t, addToCartBody(t, "tut1", shop.ItemTypeTutorial, 25, ""))

		req, rec := newAuthRequest(http.MethodPost, "/v1/shop/checkout", studentToken, payment("1234"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"card_number": "card number must be exactly 16 digits"}),
		}, rec)
	})

	t.Run("declined payment leaves the cart untouched", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/shop/checkout", studentToken, payment("4000 0000 0000 0002"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusPaymentRequired, rec.Body.String())
		}
		var res struct {
			Error  string              `json:"error"`
			Result shop.CheckoutResult `json:"result"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling: %v", err)
		}
		if res.Error != "payment declined" {
			t.Errorf("error = %q; want %q", res.Error, "payment declined")
		}
		if !res.Result.Declined || res.Result.Success {
			t.Errorf("result = %+v; want declined", res.Result)
		}

		// the cart still holds the line
		req, rec = newAuthRequest(http.MethodGet, "/v1/shop/cart", studentToken)
		app.ServeHTTP(rec, req)
		var cart echoapi.CartResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
			t.Fatalf("unmarshalling CartResponse: %v", err)
		}
		if len(cart.Lines) != 1 {
			t.Errorf("lines = %d; want 1", len(cart.Lines))
		}
	})

	t.Run("successful checkout grants entitlements", func(t *testing.T) {
		addItem(t, addToCartBody(t, "les1", shop.ItemTypeRecordedLesson, 10, ""))

		req, rec := newAuthRequest(http.MethodPost, "/v1/shop/checkout", studentToken, payment(""))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res shop.CheckoutResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling CheckoutResult: %v", err)
		}
		if !res.Success || res.TransactionID == "" {
			t.Fatalf("result = %+v; want success", res)
		}
		if len(res.Purchases) != 2 {
			t.Fatalf("purchases = %d; want 2", len(res.Purchases))
		}
		for _, p := range res.Purchases {
			if p.Status != shop.StatusCompleted {
				t.Errorf("purchase status = %s; want %s", p.Status, shop.StatusCompleted)
			}
		}

		// the cart was drained
		req, rec = newAuthRequest(http.MethodGet, "/v1/shop/cart", studentToken)
		app.ServeHTTP(rec, req)
		var cart echoapi.CartResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
			t.Fatalf("unmarshalling CartResponse: %v", err)
		}
		if len(cart.Lines) != 0 {
			t.Errorf("lines = %d; want 0", len(cart.Lines))
		}

		// entitlements reflect the new purchases
		req, rec = newAuthRequest(http.MethodGet, "/v1/shop/entitlements", studentToken)
		app.ServeHTTP(rec, req)
		var ent echoapi.EntitlementsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &ent); err != nil {
			t.Fatalf("unmarshalling EntitlementsResponse: %v", err)
		}
		if ent.BeneficiaryID != fix.student.ID {
			t.Errorf("beneficiary = %s; want %s", ent.BeneficiaryID, fix.student.ID)
		}
		if len(ent.OwnedItemIDs) != 2 {
			t.Errorf("owned = %v; want 2 items", ent.OwnedItemIDs)
		}

		// re-buying an owned item is rejected at the cart
		req, rec = newAuthRequest(http.MethodPost, "/v1/shop/cart/items", studentToken,
			addToCartBody(t, "tut1", shop.ItemTypeTutorial, 25, ""))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: shop.ErrAlreadyOwned.Error()}),
		}, rec)
	})
}

func Test_shopApi_adminPurchases(t *testing.T) {
	fix := setupShop(t)
	adminToken := getToken(t, fix.admin)

	p1 := testutil.CreatePurchase(t, ledger, fix.student.ID, fix.student.ID, "tut1", shop.ItemTypeTutorial, 25, shop.StatusCompleted)
	p2 := testutil.CreatePurchase(t, ledger, fix.parent.ID, fix.child.ID, "les1", shop.ItemTypeRecordedLesson, 10, shop.StatusCompleted)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/shop/purchases",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodGet, path: "/v1/shop/purchases", token: getToken(t, fix.student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "list all", method: http.MethodGet, path: "/v1/shop/purchases", token: adminToken,
			wantCode: http.StatusOK, wantData: marshalList(t, p1, p2),
		},
		{
			name: "filter by beneficiary", method: http.MethodGet, path: "/v1/shop/purchases?beneficiary_id=" + fix.child.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marshalList(t, p2),
		},
		{
			name: "unknown item type", method: http.MethodDelete, path: "/v1/shop/purchases/course/" + p1.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "cancel purchase", method: http.MethodDelete, path: "/v1/shop/purchases/tutorial/" + p1.ID, token: adminToken,
			wantCode: http.StatusNoContent, wantData: []byte{},
		},
		{
			name: "cancelling again is idempotent", method: http.MethodDelete, path: "/v1/shop/purchases/tutorial/" + p1.ID, token: adminToken,
			wantCode: http.StatusNoContent, wantData: []byte{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("cancelled purchase no longer lists", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/shop/purchases", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshalList(t, p2)}, rec)
	})
}
