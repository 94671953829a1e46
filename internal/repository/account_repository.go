package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/utils"
)

// Roles stored in accounts.role.
const (
	RoleOwner   = "OWNER"
	RoleAccount = "ACCOUNT"
)

// Credential mirrors the 'accounts' table: the login of one platform
// account.
type Credential struct {
	Account      model.Account
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create stores a bcrypt hash of password for account.
func (r *AccountRepo) Create(ctx context.Context, account model.Account, password, role string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO accounts (account, password_hash, role) VALUES (?,?,?)",
		account.String(), hash, role)
	if isDuplicate(err) {
		return ErrAccountExists
	}
	return err
}

// GetByAccount fetches the credential row of account.
func (r *AccountRepo) GetByAccount(ctx context.Context, account model.Account) (Credential, error) {
	var (
		c   Credential
		raw string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT account,password_hash,role,is_active,created_at,updated_at FROM accounts WHERE account=? LIMIT 1",
		account.String()).Scan(&raw, &c.PasswordHash, &c.Role, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	c.Account = model.Account(raw)
	return c, err
}

// Provision stores hash as the credential of account with role, replacing
// whatever was stored before and reactivating the row.
func (r *AccountRepo) Provision(ctx context.Context, account model.Account, hash, role string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (account, password_hash, role, is_active) VALUES (?,?,?,1)
		 ON DUPLICATE KEY UPDATE password_hash=VALUES(password_hash), role=VALUES(role), is_active=1`,
		account.String(), hash, role)
	return err
}

// Disable deactivates account if it has a row.
func (r *AccountRepo) Disable(ctx context.Context, account model.Account) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE accounts SET is_active=0 WHERE account=?", account.String())
	return err
}
