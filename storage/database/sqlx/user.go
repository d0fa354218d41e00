package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sql.DB) user.Repository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

// userRow maps the "user" table.
type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	ChildIDs     pq.StringArray `db:"child_ids"`
	PasswordHash []byte         `db:"password_hash"`
	LastLogin    sql.NullTime   `db:"last_login"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		IsActive:     row.IsActive,
		Roles:        row.Roles,
		ChildIDs:     row.ChildIDs,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time
	}
	return usr
}

const selectUser = `SELECT id, name, username, email, is_active, roles, child_ids, password_hash, last_login, created_at, updated_at FROM "user"`

func (repo *userRepository) getOne(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "querying user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	exclIDs := make(pq.StringArray, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	var taken struct {
		Username bool `db:"username_taken"`
		Email    bool `db:"email_taken"`
	}
	query := `
SELECT COALESCE(bool_or(username = $1 AND username <> ''), false) AS username_taken,
       COALESCE(bool_or(email = $2 AND email <> ''), false)       AS email_taken
FROM "user" WHERE NOT (id = ANY ($3))`
	if err := repo.db.Get(&taken, query, username, email, exclIDs); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	if taken.Username {
		return user.ErrUsernameExists
	}
	if taken.Email {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	query := `
INSERT INTO "user" (id, name, username, email, is_active, roles, child_ids, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.Exec(query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive,
		pq.StringArray(usr.Roles), pq.StringArray(usr.ChildIDs), usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, selectUser+` ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getOne(selectUser+` WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getOne(selectUser+` WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getOne(selectUser+` WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getOne(selectUser+` WHERE username = $1 OR email = $1`, username)
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	// only persist set fields
	query := `
UPDATE "user" SET
    name          = CASE WHEN $2 <> '' THEN $2 ELSE name END,
    username      = CASE WHEN $3 <> '' THEN $3 ELSE username END,
    email         = CASE WHEN $4 <> '' THEN $4 ELSE email END,
    roles         = COALESCE($5, roles),
    child_ids     = COALESCE($6, child_ids),
    password_hash = COALESCE($7, password_hash),
    is_active     = COALESCE($8, is_active),
    last_login    = COALESCE($9, last_login),
    updated_at    = $10
WHERE id = $1`

	var roles, childIDs interface{}
	if usr.Roles != nil {
		roles = pq.StringArray(usr.Roles)
	}
	if usr.ChildIDs != nil {
		childIDs = pq.StringArray(usr.ChildIDs)
	}
	var lastLogin interface{}
	if !usr.LastLogin.IsZero() {
		lastLogin = usr.LastLogin
	}

	res, err := repo.db.Exec(query,
		usr.ID, usr.Name, usr.Username, usr.Email,
		roles, childIDs, usr.PasswordHash, isActive, lastLogin, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM "user" WHERE id = ANY ($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting users")
}
