// Package ledger keeps account cash consistent with the trades attributed to it
// and derives valuations and performance aggregates from a trade snapshot.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/finance"
	"github.com/trogers1052/trading-journal/internal/models"
)

// ErrNoMatchingAccount is returned when a trade names an account the ledger does not hold
var ErrNoMatchingAccount = errors.New("no matching account")

// Result describes the cash effect of one ledger operation
type Result struct {
	Account string          `json:"account"`
	Applied bool            `json:"applied"`
	Delta   decimal.Decimal `json:"delta"`
}

// Err returns ErrNoMatchingAccount when nothing was applied
func (r Result) Err() error {
	if r.Applied {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNoMatchingAccount, r.Account)
}

// OpenPosition debits the owning account by the trade's position size.
// The input slice is never modified.
func OpenPosition(accounts []models.Account, t models.Trade) ([]models.Account, Result) {
	return apply(accounts, t.Account, t.PositionSize.Neg())
}

// ClosePosition credits the owning account with the committed capital plus realized P/L
func ClosePosition(accounts []models.Account, closed models.Trade) ([]models.Account, Result) {
	if closed.ExitData == nil {
		return cloneAccounts(accounts), Result{Account: closed.Account}
	}
	return apply(accounts, closed.Account, closed.PositionSize.Add(RealizedPL(closed)))
}

// SettleUndebited debits the Uncategorized pool for active trades whose
// position size never left any account: trades filed as Uncategorized or
// under a name the ledger does not hold. Active trades in a held account were
// debited when opened and are only marked. It returns the new accounts, the
// trades that changed and the total debited.
func SettleUndebited(accounts []models.Account, trades []models.Trade) ([]models.Account, []models.Trade, decimal.Decimal) {
	next := cloneAccounts(accounts)
	var changed []models.Trade
	total := decimal.Zero

	for _, t := range trades {
		if t.ExitData != nil || t.CashDebited {
			continue
		}
		if t.Account == models.AccountUncategorized || !holds(next, t.Account) {
			var res Result
			next, res = apply(next, models.AccountUncategorized, t.PositionSize.Neg())
			if !res.Applied {
				continue
			}
			total = total.Add(t.PositionSize)
		}
		t.CashDebited = true
		changed = append(changed, t)
	}
	return next, changed, total
}

// RealizedPL is the P/L of a closed trade at its exit price, zero for active trades
func RealizedPL(t models.Trade) decimal.Decimal {
	if t.ExitData == nil {
		return decimal.Zero
	}
	return finance.ProfitLoss(t.EntryPrice, t.ExitData.ExitPrice, t.ShareCount, t.Direction)
}

// RealizedPLPercent is the percentage return of a closed trade
func RealizedPLPercent(t models.Trade) decimal.Decimal {
	if t.ExitData == nil {
		return decimal.Zero
	}
	return finance.ProfitLossPercent(t.EntryPrice, t.ExitData.ExitPrice, t.Direction)
}

// OpenPL is the unrealized P/L of an active trade at its last known mark
func OpenPL(t models.Trade) decimal.Decimal {
	return finance.ProfitLoss(t.EntryPrice, t.MarkPrice(), t.ShareCount, t.Direction)
}

func apply(accounts []models.Account, name string, delta decimal.Decimal) ([]models.Account, Result) {
	next := cloneAccounts(accounts)
	res := Result{Account: name}
	for i := range next {
		if next[i].Name == name {
			next[i].CurrentCash = next[i].CurrentCash.Add(delta)
			res.Applied = true
			res.Delta = delta
			return next, res
		}
	}
	return next, res
}

func holds(accounts []models.Account, name string) bool {
	for _, a := range accounts {
		if a.Name == name {
			return true
		}
	}
	return false
}

func cloneAccounts(accounts []models.Account) []models.Account {
	next := make([]models.Account, len(accounts))
	copy(next, accounts)
	return next
}
