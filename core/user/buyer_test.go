package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanBuyFor(t *testing.T) {
	student := &User{ID: "std1", Roles: []string{RoleStudent}}
	parent := &User{ID: "par1", Roles: []string{RoleParent}, ChildIDs: []string{"kid1", "kid2"}}
	tutor := &User{ID: "tut1", Roles: []string{RoleTutor}}
	admin := &User{ID: "adm1", Roles: []string{RoleAdminOwner}}
	hybrid := &User{ID: "hyb1", Roles: []string{RoleStudent, RoleParent}, ChildIDs: []string{"kid1"}}

	tests := []struct {
		name          string
		usr           *User
		beneficiaryID string
		want          bool
	}{
		{name: "student buys for self", usr: student, beneficiaryID: "std1", want: true},
		{name: "student cannot buy for someone else", usr: student, beneficiaryID: "kid1", want: false},
		{name: "parent buys for registered child", usr: parent, beneficiaryID: "kid1", want: true},
		{name: "parent buys for another registered child", usr: parent, beneficiaryID: "kid2", want: true},
		{name: "parent cannot buy for self", usr: parent, beneficiaryID: "par1", want: false},
		{name: "parent cannot buy for unregistered child", usr: parent, beneficiaryID: "kid3", want: false},
		{name: "tutor cannot buy", usr: tutor, beneficiaryID: "tut1", want: false},
		{name: "admin cannot buy", usr: admin, beneficiaryID: "adm1", want: false},
		{name: "student-parent buys for self", usr: hybrid, beneficiaryID: "hyb1", want: true},
		{name: "student-parent buys for child", usr: hybrid, beneficiaryID: "kid1", want: true},
		{name: "nil user", usr: nil, beneficiaryID: "std1", want: false},
		{name: "empty beneficiary", usr: student, beneficiaryID: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanBuyFor(tt.usr, tt.beneficiaryID))
		})
	}
}

func TestResolveBuyer(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		_, err := ResolveBuyer(nil)
		assert.Equal(t, ErrUnauthenticated, err)

		_, err = ResolveBuyer(&User{})
		assert.Equal(t, ErrUnauthenticated, err)
	})

	t.Run("student defaults to self", func(t *testing.T) {
		bc, err := ResolveBuyer(&User{ID: "std1", Roles: []string{RoleStudent}})
		require.NoError(t, err)
		assert.Equal(t, BuyerContext{BuyerID: "std1", DefaultBeneficiaryID: "std1"}, bc)
	})

	t.Run("parent has no default beneficiary", func(t *testing.T) {
		bc, err := ResolveBuyer(&User{ID: "par1", Roles: []string{RoleParent}, ChildIDs: []string{"kid1"}})
		require.NoError(t, err)
		assert.Equal(t, BuyerContext{BuyerID: "par1"}, bc)
	})
}
