package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the persisted portfolio configuration
type Settings struct {
	PortfolioValue decimal.Decimal `json:"portfolioValue"`
	MaxRiskPercent decimal.Decimal `json:"maxRiskPercent"`
	Accounts       []Account       `json:"accounts"`
	TradeSequence  int             `json:"tradeSequence"`
	InitializedAt  time.Time       `json:"initializedAt"`
}

// FindAccount returns the account with the given name
func (s Settings) FindAccount(name string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.Name == name {
			return a, true
		}
	}
	return Account{}, false
}

// WatchlistItem is a pre-trade candidate
type WatchlistItem struct {
	ID          string          `json:"id"`
	Ticker      string          `json:"ticker"`
	Account     string          `json:"account,omitempty"`
	Source      string          `json:"source,omitempty"`
	TargetEntry decimal.Decimal `json:"targetEntry"`
	Notes       string          `json:"notes,omitempty"`
	AddedDate   time.Time       `json:"addedDate"`
}

// CircuitBreakerInfo is the drawdown-based trading halt flag
type CircuitBreakerInfo struct {
	IsTriggered     bool            `json:"isTriggered"`
	TriggeredDate   *time.Time      `json:"triggeredDate,omitempty"`
	PeakValue       decimal.Decimal `json:"peakValue"`
	DrawdownPercent decimal.Decimal `json:"drawdownPercent"`
	ResumeDate      *time.Time      `json:"resumeDate,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}
