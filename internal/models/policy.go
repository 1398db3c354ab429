package models

import "github.com/shopspring/decimal"

// AccountPolicy holds the sizing and timing rules of one account
type AccountPolicy struct {
	Account            string          `json:"account"`
	MaxPositionPercent decimal.Decimal `json:"maxPositionPercent"` // of the account's starting value, 0 = unlimited
	AllowShort         bool            `json:"allowShort"`
	RequireStopLoss    bool            `json:"requireStopLoss"`
	MaxOpenPositions   int             `json:"maxOpenPositions"` // 0 = unlimited
	CooldownDays       int             `json:"cooldownDays"`     // wait after a losing exit in the same ticker
}
