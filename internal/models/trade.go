package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a position
type Direction string

// Direction constants
const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// TradeStatus tags which variant a trade is
type TradeStatus string

// Trade status constants
const (
	StatusActive TradeStatus = "active"
	StatusClosed TradeStatus = "closed"
)

// Trade source constants
const (
	SourceSelfDiscovered = "Self-Discovered"
	SourceAISuggested    = "AI Suggested"
	SourceSocialMedia    = "Social Media"
	SourceNews           = "News/Article"
	SourceAnalyst        = "Analyst/Newsletter"
	SourceFriend         = "Friend/Colleague"
)

// Emotional state constants
const (
	EmotionCalm    = "Calm & Focused"
	EmotionExcited = "Excited / FOMO"
	EmotionAnxious = "Anxious / Uncertain"
	EmotionRevenge = "Frustrated / Revenge"
)

// Exit reason constants
const (
	ExitTargetHit         = "Target Hit"
	ExitStopLossHit       = "Stop Loss Hit"
	ExitThesisBroken      = "Thesis Invalidated"
	ExitTimeStop          = "Time Stop"
	ExitBetterOpportunity = "Better Opportunity"
	ExitOther             = "Other"
)

// ExitReasons lists the accepted exit reasons
func ExitReasons() []string {
	return []string{ExitTargetHit, ExitStopLossHit, ExitThesisBroken, ExitTimeStop, ExitBetterOpportunity, ExitOther}
}

// EmotionalStates lists the four phrases the intake may return
func EmotionalStates() []string {
	return []string{EmotionCalm, EmotionExcited, EmotionAnxious, EmotionRevenge}
}

// Checklist is the pre-trade discipline checklist
type Checklist struct {
	ResearchDone    bool `json:"researchDone"`
	StopLossSet     bool `json:"stopLossSet"`
	PositionSized   bool `json:"positionSized"`
	ThesisWritten   bool `json:"thesisWritten"`
	EmotionsChecked bool `json:"emotionsChecked"`
}

// PriceProbability pairs a scenario price with the trader's probability estimate
type PriceProbability struct {
	Price       decimal.Decimal `json:"price"`
	Probability decimal.Decimal `json:"probability"`
}

// TakeProfitLevel is one stage of a scaled exit plan
type TakeProfitLevel struct {
	Price   decimal.Decimal `json:"price"`
	Percent decimal.Decimal `json:"percent"`
}

// ExitData is the post-mortem recorded when a trade is closed
type ExitData struct {
	ExitDate      time.Time       `json:"exitDate"`
	ExitPrice     decimal.Decimal `json:"exitPrice"`
	ExitReason    string          `json:"exitReason"`
	WhatWentRight string          `json:"whatWentRight,omitempty"`
	WhatWentWrong string          `json:"whatWentWrong,omitempty"`
	LessonLearned string          `json:"lessonLearned,omitempty"`
	WouldRepeat   bool            `json:"wouldRepeat"`
	RepeatReason  string          `json:"repeatReason,omitempty"`
	Rating        int             `json:"rating,omitempty"` // 1-5, 0 = unrated
}

// Trade is a journal entry. It is active until ExitData is attached.
type Trade struct {
	ID                    string            `json:"id"`
	Status                TradeStatus       `json:"status"`
	EntryDate             time.Time         `json:"entryDate"`
	Ticker                string            `json:"ticker"`
	EntryPrice            decimal.Decimal   `json:"entryPrice"`
	PositionSize          decimal.Decimal   `json:"positionSize"`
	ShareCount            decimal.Decimal   `json:"shareCount"`
	Direction             Direction         `json:"direction"`
	Source                string            `json:"source"`
	StopLoss              decimal.Decimal   `json:"stopLoss"`
	Account               string            `json:"account"`
	TradeType             string            `json:"tradeType,omitempty"`
	Thesis                string            `json:"thesis"`
	EmotionalState        string            `json:"emotionalState,omitempty"`
	Checklist             Checklist         `json:"checklist"`
	Conviction            int               `json:"conviction,omitempty"`
	BullCase              PriceProbability  `json:"bullCase"`
	BearCase              PriceProbability  `json:"bearCase"`
	TakeProfitLevels      []TakeProfitLevel `json:"takeProfitLevels,omitempty"`
	PortfolioValueOnEntry decimal.Decimal   `json:"portfolioValueOnEntry"`
	MaxRiskPercent        decimal.Decimal   `json:"maxRiskPercent"`
	RawInput              string            `json:"rawInput,omitempty"`
	AIFramework           json.RawMessage   `json:"aiFramework,omitempty"`
	ValidationFlags       []string          `json:"validationFlags,omitempty"`
	CurrentPrice          *decimal.Decimal  `json:"currentPrice,omitempty"`
	ExitData              *ExitData         `json:"exitData,omitempty"`
	CashDebited           bool              `json:"cashDebited,omitempty"` // position size taken from an account
}

// MarkPrice is the last known price, falling back to the entry price
func (t Trade) MarkPrice() decimal.Decimal {
	if t.CurrentPrice != nil {
		return *t.CurrentPrice
	}
	return t.EntryPrice
}
