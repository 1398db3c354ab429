// Package intake turns free-form journal text into a trade proposal through an
// external model and re-checks the proposal against the account rules.
package intake

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/trogers1052/trading-journal/internal/models"
)

// Proposal actions
const (
	ActionOpen  = "OPEN"
	ActionClose = "CLOSE"
	ActionRoll  = "ROLL"
)

// Proposal is the structured trade the model suggests
type Proposal struct {
	Account         string              `json:"account"`
	TradeType       string              `json:"tradeType"`
	Ticker          string              `json:"ticker"`
	Action          string              `json:"action"`
	Direction       string              `json:"direction"`
	Quantity        models.LooseDecimal `json:"quantity"`
	EntryPrice      models.LooseDecimal `json:"entryPrice"`
	PositionSize    models.LooseDecimal `json:"positionSize"`
	Thesis          string              `json:"thesis"`
	StopLoss        models.LooseDecimal `json:"stopLoss"`
	EmotionalState  string              `json:"emotionalState"`
	ValidationFlags []string            `json:"validationFlags"`
}

// Categorizer converts free text into a proposal
type Categorizer interface {
	Categorize(ctx context.Context, text string) (Proposal, error)
}

// TradeInput converts the proposal into create-trade fields. The raw text and
// the model's JSON are kept for audit.
func (p Proposal) TradeInput(rawText string) models.TradeInput {
	framework, _ := json.Marshal(p)
	return models.TradeInput{
		Ticker:          p.Ticker,
		Direction:       p.Direction,
		EntryPrice:      p.EntryPrice,
		PositionSize:    p.PositionSize,
		Quantity:        p.Quantity,
		StopLoss:        p.StopLoss,
		Account:         p.Account,
		TradeType:       p.TradeType,
		Thesis:          p.Thesis,
		EmotionalState:  p.EmotionalState,
		RawInput:        rawText,
		AIFramework:     framework,
		ValidationFlags: append([]string(nil), p.ValidationFlags...),
	}
}

// normalize canonicalises the enum-like fields. It reports a schema
// violation as a non-empty reason.
func (p Proposal) normalize() (Proposal, string) {
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	if p.Ticker == "" {
		return p, "ticker is missing"
	}

	p.Action = strings.ToUpper(strings.TrimSpace(p.Action))
	switch p.Action {
	case "":
		p.Action = ActionOpen
	case ActionOpen, ActionClose, ActionRoll:
	default:
		return p, "action must be OPEN, CLOSE or ROLL"
	}

	switch strings.ToLower(strings.TrimSpace(p.Direction)) {
	case "long", "":
		p.Direction = string(models.DirectionLong)
	case "short":
		p.Direction = string(models.DirectionShort)
	default:
		return p, "direction must be Long or Short"
	}

	if name, ok := models.CanonicalAccountName(p.Account); ok {
		p.Account = name
	} else {
		p.ValidationFlags = append(p.ValidationFlags, "account "+quote(p.Account)+" is not recognised; filed under Uncategorized")
		p.Account = models.AccountUncategorized
	}

	for _, known := range models.EmotionalStates() {
		if strings.EqualFold(strings.TrimSpace(p.EmotionalState), known) {
			p.EmotionalState = known
			break
		}
	}
	return p, ""
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
