package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/finance"
	"github.com/trogers1052/trading-journal/internal/ledger"
	"github.com/trogers1052/trading-journal/internal/models"
	"github.com/trogers1052/trading-journal/internal/trade"
)

var hundred = decimal.NewFromInt(100)

// Policy applies the per-account sizing and timing rules locally, whatever the
// model said
type Policy struct {
	rules map[string]models.AccountPolicy
}

// NewPolicy creates a policy from the configured account rules
func NewPolicy(rules []models.AccountPolicy) *Policy {
	p := &Policy{rules: make(map[string]models.AccountPolicy, len(rules))}
	for _, r := range rules {
		p.rules[r.Account] = r
	}
	return p
}

// Rule returns the rule for an account
func (p *Policy) Rule(account string) (models.AccountPolicy, bool) {
	r, ok := p.rules[account]
	return r, ok
}

// Check returns one message per violated rule. trades is the current book;
// accounts without a rule are only checked against the portfolio risk limit.
func (p *Policy) Check(in models.TradeInput, settings models.Settings, trades []models.Trade, now time.Time) []string {
	var violations []string

	account, _ := models.CanonicalAccountName(in.Account)
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	direction, _ := trade.ParseDirection(in.Direction)
	entry := in.EntryPrice.OrZero()
	size := in.PositionSize.OrZero()
	stop := in.StopLoss.OrZero()

	if rule, ok := p.Rule(account); ok {
		acct, _ := settings.FindAccount(account)

		if rule.MaxPositionPercent.IsPositive() {
			limit := acct.StartingValue.Mul(rule.MaxPositionPercent).Div(hundred)
			if size.GreaterThan(limit) {
				violations = append(violations, fmt.Sprintf("position size %s exceeds %s%% of %s (%s)",
					size.StringFixed(2), rule.MaxPositionPercent.String(), account, limit.StringFixed(2)))
			}
		}

		if direction == models.DirectionShort && !rule.AllowShort {
			violations = append(violations, fmt.Sprintf("short selling is not allowed in %s", account))
		}

		if rule.RequireStopLoss && !stop.IsPositive() {
			violations = append(violations, fmt.Sprintf("%s requires a stop loss", account))
		}

		if rule.MaxOpenPositions > 0 {
			open := 0
			for _, t := range trades {
				if trade.IsActive(t) && t.Account == account {
					open++
				}
			}
			if open >= rule.MaxOpenPositions {
				violations = append(violations, fmt.Sprintf("%s already has %d open positions (max %d)",
					account, open, rule.MaxOpenPositions))
			}
		}

		if rule.CooldownDays > 0 {
			if last, ok := lastLoss(trades, account, ticker); ok {
				until := last.AddDate(0, 0, rule.CooldownDays)
				if now.Before(until) {
					violations = append(violations, fmt.Sprintf("%s closed at a loss on %s; wait until %s before re-entering",
						ticker, last.Format("2006-01-02"), until.Format("2006-01-02")))
				}
			}
		}
	}

	if settings.MaxRiskPercent.IsPositive() && entry.IsPositive() && stop.IsPositive() {
		shares := size.Div(entry)
		risk := finance.RiskPercent(finance.RiskAmount(entry, stop, shares, direction), settings.PortfolioValue)
		if risk.GreaterThan(settings.MaxRiskPercent) {
			violations = append(violations, fmt.Sprintf("risk %s%% of portfolio exceeds max %s%%",
				risk.StringFixed(2), settings.MaxRiskPercent.String()))
		}
	}

	return violations
}

// Advisories returns warnings that do not block a trade. An account may go
// below zero cash; the trader is told when a position overdraws it.
func (p *Policy) Advisories(in models.TradeInput, settings models.Settings) []string {
	account, _ := models.CanonicalAccountName(in.Account)
	if _, ok := p.Rule(account); !ok {
		return nil
	}
	acct, ok := settings.FindAccount(account)
	if !ok {
		return nil
	}

	var notes []string
	if size := in.PositionSize.OrZero(); size.GreaterThan(acct.CurrentCash) {
		notes = append(notes, fmt.Sprintf("position size %s exceeds available cash %s in %s",
			size.StringFixed(2), acct.CurrentCash.StringFixed(2), account))
	}
	return notes
}

// lastLoss finds the most recent losing exit in the account for ticker
func lastLoss(trades []models.Trade, account, ticker string) (time.Time, bool) {
	var last time.Time
	found := false
	for _, t := range trades {
		if !trade.IsClosed(t) || t.Account != account || t.Ticker != ticker {
			continue
		}
		if !ledger.RealizedPL(t).IsNegative() {
			continue
		}
		if !found || t.ExitData.ExitDate.After(last) {
			last = t.ExitData.ExitDate
			found = true
		}
	}
	return last, found
}

// Review is a proposal together with the model's advisory flags and the
// locally detected rule violations
type Review struct {
	Proposal   Proposal `json:"proposal"`
	Advisory   []string `json:"advisory"`
	Violations []string `json:"violations"`
}

// Blocked reports whether local rules reject the proposal
func (r Review) Blocked() bool {
	return len(r.Violations) > 0
}

// Flags merges advisory and violation messages without duplicates
func (r Review) Flags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{r.Violations, r.Advisory} {
		for _, f := range group {
			f = strings.TrimSpace(f)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// ReviewProposal re-checks a model proposal against the local rules. Only
// OPEN proposals become new trades; CLOSE and ROLL are reported as violations.
func (p *Policy) ReviewProposal(prop Proposal, settings models.Settings, trades []models.Trade, now time.Time) Review {
	in := prop.TradeInput("")

	var violations []string
	if action := strings.ToUpper(strings.TrimSpace(prop.Action)); action != "" && action != ActionOpen {
		violations = append(violations, fmt.Sprintf("%s %s does not open a position; record it against the existing trade instead",
			action, strings.ToUpper(strings.TrimSpace(prop.Ticker))))
	}
	violations = append(violations, p.Check(in, settings, trades, now)...)

	return Review{
		Proposal:   prop,
		Advisory:   append(append([]string(nil), prop.ValidationFlags...), p.Advisories(in, settings)...),
		Violations: violations,
	}
}
