package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/trogers1052/trading-journal/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProfitLoss(t *testing.T) {
	tests := []struct {
		name      string
		entry     string
		mark      string
		shares    string
		direction models.Direction
		want      string
	}{
		{"long gain", "150", "160", "100", models.DirectionLong, "1000"},
		{"long loss", "150", "140", "100", models.DirectionLong, "-1000"},
		{"short gain", "50", "40", "10", models.DirectionShort, "100"},
		{"short loss", "50", "55", "10", models.DirectionShort, "-50"},
		{"flat", "25.5", "25.5", "3", models.DirectionLong, "0"},
		{"fractional shares", "3", "4.5", "0.5", models.DirectionLong, "0.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitLoss(d(tt.entry), d(tt.mark), d(tt.shares), tt.direction)
			assert.True(t, d(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestProfitLossPercent(t *testing.T) {
	t.Run("long round trip", func(t *testing.T) {
		got := ProfitLossPercent(d("150"), d("160"), models.DirectionLong)
		assert.Equal(t, "6.67", got.Round(2).String())
	})

	t.Run("short is oriented", func(t *testing.T) {
		got := ProfitLossPercent(d("100"), d("90"), models.DirectionShort)
		assert.True(t, d("10").Equal(got))
	})

	t.Run("zero entry guard", func(t *testing.T) {
		assert.True(t, ProfitLossPercent(decimal.Zero, d("42"), models.DirectionLong).IsZero())
		assert.True(t, ProfitLossPercent(decimal.Zero, d("42"), models.DirectionShort).IsZero())
	})
}

func TestDaysHeldAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysHeldAt(now.Add(-23*time.Hour), now))
	assert.Equal(t, 1, DaysHeldAt(now.Add(-25*time.Hour), now))
	assert.Equal(t, 9, DaysHeldAt(now.AddDate(0, 0, -9), now))
	assert.Equal(t, 0, DaysHeldAt(now.Add(time.Hour), now), "future entries clamp to zero")
	assert.Equal(t, 0, DaysHeldAt(time.Time{}, now))
}

func TestChecklistScore(t *testing.T) {
	assert.Equal(t, 0, ChecklistScore(models.Checklist{}))
	assert.Equal(t, 2, ChecklistScore(models.Checklist{ResearchDone: true, EmotionsChecked: true}))
	assert.Equal(t, ChecklistSize, ChecklistScore(models.Checklist{
		ResearchDone: true, StopLossSet: true, PositionSized: true, ThesisWritten: true, EmotionsChecked: true,
	}))
}

func TestRiskAmount(t *testing.T) {
	assert.True(t, d("500").Equal(RiskAmount(d("100"), d("95"), d("100"), models.DirectionLong)))
	assert.True(t, d("500").Equal(RiskAmount(d("100"), d("105"), d("100"), models.DirectionShort)))
	assert.True(t, RiskAmount(d("100"), decimal.Zero, d("100"), models.DirectionLong).IsZero())
	assert.True(t, RiskAmount(d("100"), d("110"), d("100"), models.DirectionLong).IsZero(), "stop above entry risks nothing")

	assert.True(t, d("2").Equal(RiskPercent(d("500"), d("25000"))))
	assert.True(t, RiskPercent(d("500"), decimal.Zero).IsZero())
}
