package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Account name constants
const (
	AccountIncomeGenerator = "Income Generator"
	AccountSpeculation     = "Speculation"
	AccountTradingLab      = "Trading Lab"
	AccountUncategorized   = "Uncategorized"
)

// Account is one capital pool a trade is attributed to
type Account struct {
	Name          string          `json:"name"`
	StartingValue decimal.Decimal `json:"startingValue"`
	CurrentCash   decimal.Decimal `json:"currentCash"`
}

// NamedAccounts returns the three configured sub-account names in display order
func NamedAccounts() []string {
	return []string{AccountIncomeGenerator, AccountSpeculation, AccountTradingLab}
}

// CanonicalAccountName maps a loosely written account name onto a known one.
// Unknown names are returned unchanged with ok=false.
func CanonicalAccountName(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	for _, known := range append(NamedAccounts(), AccountUncategorized) {
		if strings.EqualFold(trimmed, known) {
			return known, true
		}
	}
	return trimmed, false
}
