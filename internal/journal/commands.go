package journal

import (
	"context"
	"strings"

	"github.com/trogers1052/trading-journal/internal/models"
	"github.com/trogers1052/trading-journal/internal/trade"
)

// HandleCommand applies a command received from another tool
func (s *Service) HandleCommand(ctx context.Context, cmd models.JournalCommand) error {
	switch cmd.Type {
	case models.CommandCreateTrade:
		if cmd.Trade == nil {
			return trade.NewValidationError("trade", nil, "is required for "+cmd.Type)
		}
		_, _, err := s.CreateTrade(ctx, *cmd.Trade)
		return err

	case models.CommandCloseTrade:
		if cmd.Exit == nil {
			return trade.NewValidationError("exit", nil, "is required for "+cmd.Type)
		}
		_, err := s.CloseTrade(ctx, cmd.TradeID, *cmd.Exit)
		return err

	case models.CommandUpdateMark:
		if !cmd.Price.Valid {
			return trade.NewValidationError("price", cmd.Price.Value, "is required for "+cmd.Type)
		}
		_, err := s.UpdateMark(ctx, cmd.TradeID, cmd.Price.Value)
		return err
	}
	return trade.NewValidationError("type", cmd.Type, "unknown command type")
}

// mergeFlags concatenates flag lists, dropping blanks and repeats
func mergeFlags(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range groups {
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
