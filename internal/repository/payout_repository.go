package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Payout is one row of the 'payouts' table: a completed withdrawal.
type Payout struct {
	ID        string          `json:"id"`
	Account   model.Account   `json:"account"`
	Amount    decimal.Decimal `json:"amount_wei"`
	CreatedAt time.Time       `json:"created_at"`
}

// PayoutRepo is the payment rail for withdrawals.  Each transfer appends a
// payout row and bumps the account's running total in one transaction.
type PayoutRepo struct{ DB *sql.DB }

func NewPayoutRepo(db *sql.DB) *PayoutRepo { return &PayoutRepo{DB: db} }

// Transfer records a payout of amount wei to account.
func (r *PayoutRepo) Transfer(ctx context.Context, to model.Account, amount decimal.Decimal) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO payouts (id, account, amount_wei) VALUES (?,?,?)",
		uuid.NewString(), to.String(), amount.String()); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO payout_totals (account, total_wei) VALUES (?,?)
		 ON DUPLICATE KEY UPDATE total_wei = total_wei + VALUES(total_wei)`,
		to.String(), amount.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByAccount returns the payouts of account, newest first.
func (r *PayoutRepo) ListByAccount(ctx context.Context, account model.Account) ([]Payout, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, account, amount_wei, created_at FROM payouts WHERE account=? ORDER BY created_at DESC",
		account.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Payout{}
	for rows.Next() {
		var (
			p      Payout
			acc    string
			rawWei string
		)
		if err := rows.Scan(&p.ID, &acc, &rawWei, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Account = model.Account(acc)
		if p.Amount, err = model.ParseWei(rawWei); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Totals returns the running payout total of every account.
func (r *PayoutRepo) Totals(ctx context.Context) (map[model.Account]decimal.Decimal, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT account, total_wei FROM payout_totals")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.Account]decimal.Decimal{}
	for rows.Next() {
		var acc, rawWei string
		if err := rows.Scan(&acc, &rawWei); err != nil {
			return nil, err
		}
		v, err := model.ParseWei(rawWei)
		if err != nil {
			return nil, err
		}
		out[model.Account(acc)] = v
	}
	return out, rows.Err()
}
