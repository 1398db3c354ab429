package models

import (
	"encoding/json"
	"time"
)

// TradeInput holds proposed trade fields as typed by the trader or returned by the intake
type TradeInput struct {
	Ticker                string            `json:"ticker"`
	Direction             string            `json:"direction"`
	EntryPrice            LooseDecimal      `json:"entryPrice"`
	PositionSize          LooseDecimal      `json:"positionSize"`
	Quantity              LooseDecimal      `json:"quantity"`
	StopLoss              LooseDecimal      `json:"stopLoss"`
	Account               string            `json:"account"`
	TradeType             string            `json:"tradeType,omitempty"`
	Source                string            `json:"source"`
	Thesis                string            `json:"thesis"`
	EmotionalState        string            `json:"emotionalState"`
	Checklist             Checklist         `json:"checklist"`
	Conviction            int               `json:"conviction"`
	BullCase              PriceProbability  `json:"bullCase"`
	BearCase              PriceProbability  `json:"bearCase"`
	TakeProfitLevels      []TakeProfitLevel `json:"takeProfitLevels,omitempty"`
	PortfolioValueOnEntry LooseDecimal      `json:"portfolioValueOnEntry"`
	MaxRiskPercent        LooseDecimal      `json:"maxRiskPercent"`
	EntryDate             *time.Time        `json:"entryDate,omitempty"`
	RawInput              string            `json:"rawInput,omitempty"`
	AIFramework           json.RawMessage   `json:"aiFramework,omitempty"`
	ValidationFlags       []string          `json:"validationFlags,omitempty"`

	// Override accepts a trade that breaks an account policy
	Override bool `json:"override,omitempty"`
}

// ExitInput holds the fields of the close form
type ExitInput struct {
	ExitPrice     LooseDecimal `json:"exitPrice"`
	ExitDate      *time.Time   `json:"exitDate,omitempty"`
	ExitReason    string       `json:"exitReason"`
	WhatWentRight string       `json:"whatWentRight"`
	WhatWentWrong string       `json:"whatWentWrong"`
	LessonLearned string       `json:"lessonLearned"`
	WouldRepeat   bool         `json:"wouldRepeat"`
	RepeatReason  string       `json:"repeatReason"`
	Rating        int          `json:"rating"`
}
