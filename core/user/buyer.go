package user

import "errors"

var ErrUnauthenticated = errors.New("user not authenticated")

// BuyerContext identifies who is acting in a purchase flow. For a student,
// DefaultBeneficiaryID is the student themself. For a parent there is no
// default beneficiary: a specific child must be supplied with every
// cart operation.
type BuyerContext struct {
	BuyerID              string
	DefaultBeneficiaryID string
}

// buyCapability answers whether `usr` may buy for `beneficiaryID`.
type buyCapability func(usr *User, beneficiaryID string) bool

// buyCapabilities is the closed capability table keyed by role prefix.
// Roles without an entry cannot buy at all.
var buyCapabilities = map[string]buyCapability{
	RoleStudent: func(usr *User, beneficiaryID string) bool {
		// students only buy for themselves
		return beneficiaryID == usr.ID
	},
	RoleParent: func(usr *User, beneficiaryID string) bool {
		// parents only buy for registered children
		return usr.HasChild(beneficiaryID)
	},
}

// CanBuyFor reports whether `usr` is allowed to put items in a cart for
// `beneficiaryID`.
func CanBuyFor(usr *User, beneficiaryID string) bool {
	if usr == nil || beneficiaryID == "" {
		return false
	}
	for prefix, can := range buyCapabilities {
		if usr.roleStartsWith(prefix) && can(usr, beneficiaryID) {
			return true
		}
	}
	return false
}

// ResolveBuyer resolves the acting buyer from the current user.
// It fails with ErrUnauthenticated when no user is available.
func ResolveBuyer(usr *User) (BuyerContext, error) {
	if usr == nil || usr.ID == "" {
		return BuyerContext{}, ErrUnauthenticated
	}
	ctx := BuyerContext{BuyerID: usr.ID}
	if usr.IsStudent() {
		ctx.DefaultBeneficiaryID = usr.ID
	}
	return ctx, nil
}
