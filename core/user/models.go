package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Tutor
	RoleTutor = "tutor:"

	// Student
	RoleStudent = "student:"

	// Parent
	RoleParent = "parent:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TutorRoles   = []string{RoleTutor}
	StudentRoles = []string{RoleStudent}
	ParentRoles  = []string{RoleParent}
	AllRoles     = make([]string, 0, 6)

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Tutors: 20 - 11
		RoleTutor: 11,

		// Students & Parents: 10 - 1
		RoleParent:  2,
		RoleStudent: 1,
	}
)

func init() {
	AllRoles = append(AllRoles, AdminRoles...)
	AllRoles = append(AllRoles, TutorRoles...)
	AllRoles = append(AllRoles, StudentRoles...)
	AllRoles = append(AllRoles, ParentRoles...)
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	ChildIDs     []string  `json:"child_ids,omitempty"` // set for parents only
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) roleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.roleStartsWith(RoleAdmin)
}

func (u *User) IsTutor() bool {
	return u.roleStartsWith(RoleTutor)
}

func (u *User) IsStudent() bool {
	return u.roleStartsWith(RoleStudent)
}

func (u *User) IsParent() bool {
	return u.roleStartsWith(RoleParent)
}

// HasChild reports whether `id` is a registered child of this user.
func (u *User) HasChild(id string) bool {
	for _, cid := range u.ChildIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	ChildIDs        []string `json:"child_ids"`
}

func (nu *NewUser) Validate(svc ServiceInterface) error {
	nu.Name = clean(nu.Name)
	nu.Username = clean(nu.Username, true)
	nu.Email = clean(nu.Email, true)

	if err := validateStruct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	ChildIDs        []string `json:"child_ids"`
	Password        string   `json:"password"`
	PasswordConfirm string   `json:"password_confirm" validate:"eqfield=Password"`
}

func (uu *UpdateUser) Validate() error {
	uu.Name = clean(uu.Name)
	uu.Username = clean(uu.Username, true)
	uu.Email = clean(uu.Email, true)
	return validateStruct(uu)
}
