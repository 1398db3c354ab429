// Package finance holds the profit/loss arithmetic every figure in the journal is derived from.
package finance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ProfitLoss returns the absolute P/L of shareCount shares marked at markPrice.
// Long gains when the mark rises, Short gains when it falls.
func ProfitLoss(entryPrice, markPrice, shareCount decimal.Decimal, direction models.Direction) decimal.Decimal {
	if direction == models.DirectionShort {
		return entryPrice.Sub(markPrice).Mul(shareCount)
	}
	return markPrice.Sub(entryPrice).Mul(shareCount)
}

// ProfitLossPercent returns the direction-oriented percentage move from entryPrice.
// A zero entry price yields zero.
func ProfitLossPercent(entryPrice, markPrice decimal.Decimal, direction models.Direction) decimal.Decimal {
	if entryPrice.IsZero() {
		return decimal.Zero
	}
	move := markPrice.Sub(entryPrice)
	if direction == models.DirectionShort {
		move = move.Neg()
	}
	return move.Div(entryPrice).Mul(hundred)
}

// DaysHeldAt returns whole days between entry and now, never negative
func DaysHeldAt(entry, now time.Time) int {
	if entry.IsZero() || now.Before(entry) {
		return 0
	}
	return int(now.Sub(entry) / (24 * time.Hour))
}

// ChecklistScore counts the checked items
func ChecklistScore(c models.Checklist) int {
	score := 0
	for _, checked := range []bool{c.ResearchDone, c.StopLossSet, c.PositionSized, c.ThesisWritten, c.EmotionsChecked} {
		if checked {
			score++
		}
	}
	return score
}

// ChecklistSize is the number of items ChecklistScore counts
const ChecklistSize = 5

// RiskAmount is the loss taken if the stop is hit. Zero when no stop is set.
func RiskAmount(entryPrice, stopLoss, shareCount decimal.Decimal, direction models.Direction) decimal.Decimal {
	if stopLoss.IsZero() {
		return decimal.Zero
	}
	loss := ProfitLoss(entryPrice, stopLoss, shareCount, direction).Neg()
	if loss.IsNegative() {
		return decimal.Zero
	}
	return loss
}

// RiskPercent expresses risk as a percentage of portfolio value, zero when the portfolio is empty
func RiskPercent(risk, portfolioValue decimal.Decimal) decimal.Decimal {
	if portfolioValue.IsZero() {
		return decimal.Zero
	}
	return risk.Div(portfolioValue).Mul(hundred)
}
