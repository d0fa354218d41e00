package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/shop"
	"github.com/elimuhub/elimu/core/user"
)

type (
	shopDeps struct {
		usrSvc   user.ServiceInterface
		cart     *shop.CartService
		checkout *shop.CheckoutService
		ent      *shop.EntitlementService
		ledger   shop.PurchaseLedger
	}

	shopApi struct {
		shopDeps
	}
)

func registerShopAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps shopDeps) {
	api := shopApi{shopDeps: deps}

	sg := g.Group("/shop", jwt)

	// buyer endpoints (students & parents)
	bg := sg.Group("", buyerMiddleware())
	bg.GET("/cart", api.getCart)
	bg.POST("/cart/items", api.addToCart)
	bg.DELETE("/cart/items", api.removeFromCart)
	bg.DELETE("/cart", api.clearCart)
	bg.POST("/checkout", api.postCheckout)
	bg.GET("/entitlements", api.entitlements)

	// admin endpoints
	ag := sg.Group("/purchases", adminMiddleware())
	ag.GET("", api.queryPurchases)
	ag.DELETE("/:itemType/:id", api.cancelPurchase)
}

// Bindings

type AddToCartRequest struct {
	ItemID        string        `json:"item_id" validate:"required"`
	ItemType      shop.ItemType `json:"item_type" validate:"required"`
	Title         string        `json:"title"`
	UnitPrice     float64       `json:"unit_price" validate:"required,gt=0"`
	BeneficiaryID string        `json:"beneficiary_id"`
}

func (r *AddToCartRequest) Validate() error {
	r.ItemID = core.CleanString(r.ItemID)
	r.BeneficiaryID = core.CleanString(r.BeneficiaryID)
	return core.Validate.Struct(r)
}

type RemoveFromCartRequest struct {
	ItemID        string        `json:"item_id" validate:"required"`
	ItemType      shop.ItemType `json:"item_type" validate:"required"`
	BeneficiaryID string        `json:"beneficiary_id"`
}

// Bind accepts the line key from the JSON body or from query params.
func (r *RemoveFromCartRequest) Bind(ctx echo.Context) error {
	if err := ctx.Bind(r); err != nil && ctx.Request().ContentLength > 0 {
		return err
	}
	if r.ItemID == "" {
		r.ItemID = ctx.QueryParam("item_id")
	}
	if r.ItemType == "" {
		r.ItemType = shop.ItemType(ctx.QueryParam("item_type"))
	}
	if r.BeneficiaryID == "" {
		r.BeneficiaryID = ctx.QueryParam("beneficiary_id")
	}
	return nil
}

type CartResponse struct {
	Lines []shop.CartLine `json:"lines"`
	Total float64         `json:"total"`
}

type EntitlementsResponse struct {
	BeneficiaryID string   `json:"beneficiary_id"`
	OwnedItemIDs  []string `json:"owned_item_ids"`
}

// resolveBeneficiary applies the buyer context rules: students default to
// themselves, parents must name a child, and the capability table gates
// every combination.
func (api *shopApi) resolveBeneficiary(ctx echo.Context, beneficiaryID string) (user.User, string, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return user.User{}, "", errors.Wrap(err, "getting context user")
	}

	if beneficiaryID == "" {
		buyerCtx, err := user.ResolveBuyer(&usr)
		if err != nil {
			return user.User{}, "", err
		}
		beneficiaryID = buyerCtx.DefaultBeneficiaryID
	}
	if beneficiaryID == "" {
		return user.User{}, "", shop.ErrBeneficiaryRequired
	}
	if !user.CanBuyFor(&usr, beneficiaryID) {
		return user.User{}, "", errHttpForbidden
	}
	return usr, beneficiaryID, nil
}

// Handlers

func (api *shopApi) getCart(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqCtx := ctx.Request().Context()
	lines, err := api.cart.Items(reqCtx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "reading cart")
	}
	total, err := api.cart.Total(reqCtx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing cart total")
	}
	return ctx.JSON(http.StatusOK, CartResponse{Lines: lines, Total: total})
}

func (api *shopApi) addToCart(ctx echo.Context) error {
	var data AddToCartRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddToCartRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, beneficiaryID, err := api.resolveBeneficiary(ctx, data.BeneficiaryID)
	if err != nil {
		return err
	}

	item := shop.Item{ID: data.ItemID, Type: data.ItemType, Title: data.Title, Price: data.UnitPrice}
	line, err := api.cart.Add(ctx.Request().Context(), usr.ID, item, beneficiaryID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, line)
}

func (api *shopApi) removeFromCart(ctx echo.Context) error {
	var data RemoveFromCartRequest
	if err := data.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to RemoveFromCartRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	usr, beneficiaryID, err := api.resolveBeneficiary(ctx, data.BeneficiaryID)
	if err != nil {
		return err
	}

	if err := api.cart.Remove(ctx.Request().Context(), usr.ID, data.ItemID, data.ItemType, beneficiaryID); err != nil {
		return errors.Wrap(err, "removing cart line")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *shopApi) clearCart(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.cart.Clear(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "clearing cart")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *shopApi) postCheckout(ctx echo.Context) error {
	var data shop.PaymentDetails
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentDetails")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	result, err := api.checkout.Checkout(ctx.Request().Context(), usr, data)
	if err != nil {
		// payment succeeded but some purchases were not recorded: the
		// partial result must reach the client alongside the error class,
		// so it can warn persistently and retry only the failed lines.
		if errors.Cause(err) == shop.ErrLedgerWrite {
			return ctx.JSON(http.StatusBadGateway, echo.Map{
				"error":  shop.ErrLedgerWrite.Error(),
				"result": result,
			})
		}
		return err
	}

	if result.Declined {
		return ctx.JSON(http.StatusPaymentRequired, echo.Map{
			"error":  "payment declined",
			"result": result,
		})
	}
	return ctx.JSON(http.StatusOK, result)
}

func (api *shopApi) entitlements(ctx echo.Context) error {
	beneficiaryID := core.CleanString(ctx.QueryParam("beneficiary_id"))

	_, beneficiaryID, err := api.resolveBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return err
	}

	owned, err := api.ent.OwnedItemIDs(ctx.Request().Context(), beneficiaryID)
	if err != nil {
		return errors.Wrap(err, "resolving entitlements")
	}
	ids := make([]string, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	return ctx.JSON(http.StatusOK, EntitlementsResponse{BeneficiaryID: beneficiaryID, OwnedItemIDs: ids})
}

func (api *shopApi) queryPurchases(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	if beneficiaryID := core.CleanString(ctx.QueryParam("beneficiary_id")); beneficiaryID != "" {
		purchases, err := api.ledger.ListByBeneficiary(reqCtx, beneficiaryID)
		if err != nil {
			return errors.Wrap(err, "listing purchases by beneficiary")
		}
		return ctx.JSON(http.StatusOK, purchases)
	}

	purchases, err := api.ledger.ListAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing purchases")
	}
	return ctx.JSON(http.StatusOK, purchases)
}

// cancelPurchase is the administrative override that voids a recorded
// purchase. Deleting a purchase that no longer exists is already resolved,
// not an error.
func (api *shopApi) cancelPurchase(ctx echo.Context) error {
	itemType := shop.ItemType(ctx.Param("itemType"))
	if !itemType.Valid() {
		return errHttpNotFound
	}

	err := api.ledger.DeletePurchase(ctx.Request().Context(), itemType, ctx.Param("id"))
	if err != nil && errors.Cause(err) != shop.ErrPurchaseNotFound {
		return errors.Wrap(err, "cancelling purchase")
	}
	return ctx.NoContent(http.StatusNoContent)
}
