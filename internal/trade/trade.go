// Package trade defines the lifecycle of a single journal trade: created active,
// optionally re-marked, closed exactly once.
package trade

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/models"
)

const idPrefix = "TRADE-"

// FormatID renders a sequence number as TRADE-###
func FormatID(seq int) string {
	return fmt.Sprintf("%s%03d", idPrefix, seq)
}

// ParseID extracts the sequence number of a TRADE-### id
func ParseID(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseDirection accepts Long/Short in any case, plus buy/sell style aliases
func ParseDirection(s string) (models.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return models.DirectionLong, nil
	case "short", "sell":
		return models.DirectionShort, nil
	}
	return "", NewValidationError("direction", s, "must be Long or Short")
}

// Create builds an active trade from proposed fields. Numeric fields that did
// not parse are treated as zero. The caller debits the account.
func Create(in models.TradeInput, id string, now time.Time) (models.Trade, error) {
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return models.Trade{}, NewValidationError("ticker", in.Ticker, "is required")
	}

	direction, err := ParseDirection(in.Direction)
	if err != nil {
		return models.Trade{}, err
	}

	entryPrice := in.EntryPrice.OrZero()
	positionSize := in.PositionSize.OrZero()

	shareCount := in.Quantity.OrZero()
	if entryPrice.IsPositive() {
		shareCount = positionSize.Div(entryPrice)
	}

	entryDate := now
	if in.EntryDate != nil && !in.EntryDate.IsZero() {
		entryDate = *in.EntryDate
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = models.SourceSelfDiscovered
	}

	t := models.Trade{
		ID:                    id,
		Status:                models.StatusActive,
		EntryDate:             entryDate,
		Ticker:                ticker,
		EntryPrice:            entryPrice,
		PositionSize:          positionSize,
		ShareCount:            shareCount,
		Direction:             direction,
		Source:                source,
		StopLoss:              in.StopLoss.OrZero(),
		Account:               strings.TrimSpace(in.Account),
		TradeType:             in.TradeType,
		Thesis:                in.Thesis,
		EmotionalState:        in.EmotionalState,
		Checklist:             in.Checklist,
		Conviction:            clamp(in.Conviction, 0, 10),
		BullCase:              in.BullCase,
		BearCase:              in.BearCase,
		TakeProfitLevels:      append([]models.TakeProfitLevel(nil), in.TakeProfitLevels...),
		PortfolioValueOnEntry: in.PortfolioValueOnEntry.OrZero(),
		MaxRiskPercent:        in.MaxRiskPercent.OrZero(),
		RawInput:              in.RawInput,
		AIFramework:           in.AIFramework,
		ValidationFlags:       append([]string(nil), in.ValidationFlags...),
	}
	return t, nil
}

// Close returns a closed copy of an active trade with the exit data attached
func Close(t models.Trade, exit models.ExitInput, now time.Time) (models.Trade, error) {
	if IsClosed(t) {
		return models.Trade{}, fmt.Errorf("%w: %s", ErrAlreadyClosed, t.ID)
	}
	if !exit.ExitPrice.Valid {
		return models.Trade{}, NewValidationError("exitPrice", exit.ExitPrice.Value, "is required and must be numeric")
	}

	exitDate := now
	if exit.ExitDate != nil && !exit.ExitDate.IsZero() {
		exitDate = *exit.ExitDate
	}

	closed := t
	closed.Status = models.StatusClosed
	closed.ExitData = &models.ExitData{
		ExitDate:      exitDate,
		ExitPrice:     exit.ExitPrice.Value,
		ExitReason:    normalizeExitReason(exit.ExitReason),
		WhatWentRight: exit.WhatWentRight,
		WhatWentWrong: exit.WhatWentWrong,
		LessonLearned: exit.LessonLearned,
		WouldRepeat:   exit.WouldRepeat,
		RepeatReason:  exit.RepeatReason,
		Rating:        clamp(exit.Rating, 0, 5),
	}
	return closed, nil
}

// WithMark returns a copy of an active trade carrying a new last-known price
func WithMark(t models.Trade, price decimal.Decimal) (models.Trade, error) {
	if IsClosed(t) {
		return models.Trade{}, fmt.Errorf("%w: %s", ErrAlreadyClosed, t.ID)
	}
	if price.IsNegative() {
		return models.Trade{}, NewValidationError("currentPrice", price, "must not be negative")
	}
	marked := t
	p := price
	marked.CurrentPrice = &p
	return marked, nil
}

// IsActive reports whether the trade still has an open position
func IsActive(t models.Trade) bool {
	return t.ExitData == nil
}

// IsClosed reports whether the trade has exit data recorded
func IsClosed(t models.Trade) bool {
	return t.ExitData != nil
}

// Normalize makes the status tag agree with the presence of exit data
func Normalize(t models.Trade) models.Trade {
	if IsClosed(t) {
		t.Status = models.StatusClosed
	} else {
		t.Status = models.StatusActive
	}
	return t
}

func normalizeExitReason(reason string) string {
	trimmed := strings.TrimSpace(reason)
	for _, known := range models.ExitReasons() {
		if strings.EqualFold(trimmed, known) {
			return known
		}
	}
	return models.ExitOther
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
