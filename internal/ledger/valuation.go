package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/finance"
	"github.com/trogers1052/trading-journal/internal/models"
)

// Valuation is the read-only value of one account
type Valuation struct {
	Account       string          `json:"account"`
	StartingValue decimal.Decimal `json:"startingValue"`
	Cash          decimal.Decimal `json:"cash"`
	Invested      decimal.Decimal `json:"invested"`
	OpenPL        decimal.Decimal `json:"openPL"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Return        decimal.Decimal `json:"returnPercent"`
	Positions     int             `json:"positions"`
}

// AccountValuation sums the open positions of one account.
// totalValue = cash + Σ(positionSize + open P/L).
func AccountValuation(account models.Account, openTrades []models.Trade) Valuation {
	v := Valuation{
		Account:       account.Name,
		StartingValue: account.StartingValue,
		Cash:          account.CurrentCash,
		Invested:      decimal.Zero,
		OpenPL:        decimal.Zero,
	}
	for _, t := range openTrades {
		if t.ExitData != nil {
			continue
		}
		v.Invested = v.Invested.Add(t.PositionSize)
		v.OpenPL = v.OpenPL.Add(OpenPL(t))
		v.Positions++
	}
	v.TotalValue = v.Cash.Add(v.Invested).Add(v.OpenPL)
	if account.StartingValue.IsPositive() {
		v.Return = v.TotalValue.Sub(account.StartingValue).Div(account.StartingValue).Mul(decimal.NewFromInt(100))
	} else {
		v.Return = decimal.Zero
	}
	return v
}

// TradeView is a trade with its derived figures, as shown in the history table
type TradeView struct {
	models.Trade
	ProfitLoss        decimal.Decimal `json:"profitLoss"`
	ProfitLossPercent decimal.Decimal `json:"profitLossPercent"`
	DaysHeld          int             `json:"daysHeld"`
	ChecklistScore    int             `json:"checklistScore"`
	RiskAmount        decimal.Decimal `json:"riskAmount"`
}

// View derives the display figures of a trade. Closed trades use the exit
// price and exit date; active trades use the mark and now.
func View(t models.Trade, now time.Time) TradeView {
	v := TradeView{
		Trade:          t,
		ChecklistScore: finance.ChecklistScore(t.Checklist),
		RiskAmount:     finance.RiskAmount(t.EntryPrice, t.StopLoss, t.ShareCount, t.Direction),
	}
	if t.ExitData != nil {
		v.ProfitLoss = RealizedPL(t)
		v.ProfitLossPercent = RealizedPLPercent(t)
		v.DaysHeld = finance.DaysHeldAt(t.EntryDate, t.ExitData.ExitDate)
		return v
	}
	v.ProfitLoss = OpenPL(t)
	v.ProfitLossPercent = finance.ProfitLossPercent(t.EntryPrice, t.MarkPrice(), t.Direction)
	v.DaysHeld = finance.DaysHeldAt(t.EntryDate, now)
	return v
}
