package surety

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// ReconcilePayouts aligns the restored state with the payment rail.  paid
// holds the total each account has been paid; any excess over what the
// engine recorded as withdrawn was paid after the snapshot was taken.  It
// is taken out of the balance, and whatever the balance cannot cover is
// kept as a deficit that absorbs later credits.  It returns the accounts
// adjusted.  Reconciliation runs whether or not the system is operational.
func (e *Engine) ReconcilePayouts(ctx context.Context, paid map[model.Account]decimal.Decimal) ([]model.Account, error) {
	var adjusted []model.Account
	err := e.commit(ctx, false, func(t *txn) error {
		accounts := make([]model.Account, 0, len(paid))
		for acc := range paid {
			accounts = append(accounts, acc)
		}
		sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

		for _, acc := range accounts {
			gap := paid[acc].Sub(e.withdrawn[acc])
			if !gap.IsPositive() {
				continue
			}
			bal := e.balances[acc]
			take := decimal.Min(bal, gap)
			e.balances[acc] = bal.Sub(take)
			if short := gap.Sub(take); short.IsPositive() {
				e.deficit[acc] = e.deficit[acc].Add(short)
			}
			e.withdrawn[acc] = paid[acc]
			e.treasury.Withdrawn = e.treasury.Withdrawn.Add(gap)
			t.emit(Event{Type: EventPayoutReconciled, Account: acc, Amount: amountRef(gap)})
			e.log.WithFields(logrus.Fields{
				"account": acc,
				"amount":  gap.String(),
				"deficit": e.deficit[acc].String(),
			}).Warn("surety: payout missing from restored state reconciled")
			adjusted = append(adjusted, acc)
		}
		return nil
	})
	return adjusted, err
}

// addCreditLocked credits amount to account after paying down its deficit.
func (e *Engine) addCreditLocked(account model.Account, amount decimal.Decimal) {
	if d := e.deficit[account]; d.IsPositive() {
		use := decimal.Min(d, amount)
		amount = amount.Sub(use)
		if rest := d.Sub(use); rest.IsPositive() {
			e.deficit[account] = rest
		} else {
			delete(e.deficit, account)
		}
	}
	e.balances[account] = e.balances[account].Add(amount)
}

// Withdrawn returns the total paid to account.
func (e *Engine) Withdrawn(account model.Account) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.withdrawn[account]
}
