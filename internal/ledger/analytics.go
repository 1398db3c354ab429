package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/models"
)

// Stats aggregates closed trades in one partition. WinRate is a percentage.
type Stats struct {
	Key     string          `json:"key"`
	Trades  int             `json:"trades"`
	Wins    int             `json:"wins"`
	Losses  int             `json:"losses"`
	WinRate decimal.Decimal `json:"winRate"`
	TotalPL decimal.Decimal `json:"totalPL"`
	AvgPL   decimal.Decimal `json:"avgPL"`
	AvgWin  decimal.Decimal `json:"avgWin"`
	AvgLoss decimal.Decimal `json:"avgLoss"`
}

// Summarize computes stats over every given trade. Active trades are skipped.
func Summarize(key string, trades []models.Trade) Stats {
	s := Stats{
		Key:     key,
		WinRate: decimal.Zero,
		TotalPL: decimal.Zero,
		AvgPL:   decimal.Zero,
		AvgWin:  decimal.Zero,
		AvgLoss: decimal.Zero,
	}
	winSum, lossSum := decimal.Zero, decimal.Zero
	for _, t := range trades {
		if t.ExitData == nil {
			continue
		}
		pl := RealizedPL(t)
		s.Trades++
		s.TotalPL = s.TotalPL.Add(pl)
		switch {
		case pl.IsPositive():
			s.Wins++
			winSum = winSum.Add(pl)
		case pl.IsNegative():
			s.Losses++
			lossSum = lossSum.Add(pl)
		}
	}
	s.WinRate = ratio(decimal.NewFromInt(int64(s.Wins)), s.Trades).Mul(decimal.NewFromInt(100))
	s.AvgPL = ratio(s.TotalPL, s.Trades)
	s.AvgWin = ratio(winSum, s.Wins)
	s.AvgLoss = ratio(lossSum, s.Losses)
	return s
}

// Aggregate partitions closed trades by key and summarizes each partition.
// Partitions are returned sorted by key.
func Aggregate(trades []models.Trade, key func(models.Trade) string) []Stats {
	groups := make(map[string][]models.Trade)
	for _, t := range trades {
		if t.ExitData == nil {
			continue
		}
		k := key(t)
		groups[k] = append(groups[k], t)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Stats, 0, len(keys))
	for _, k := range keys {
		out = append(out, Summarize(k, groups[k]))
	}
	return out
}

// ByAccount aggregates closed trades per account, including a zero row for
// each named account that has none
func ByAccount(trades []models.Trade, accounts []models.Account) []Stats {
	stats := Aggregate(trades, func(t models.Trade) string { return t.Account })
	present := make(map[string]bool, len(stats))
	for _, s := range stats {
		present[s.Key] = true
	}
	for _, a := range accounts {
		if !present[a.Name] {
			stats = append(stats, Summarize(a.Name, nil))
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Key < stats[j].Key })
	return stats
}

// BySource aggregates closed trades per provenance tag
func BySource(trades []models.Trade) []Stats {
	return Aggregate(trades, func(t models.Trade) string { return t.Source })
}

func ratio(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}
