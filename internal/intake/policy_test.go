package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trading-journal/internal/config"
	"github.com/trogers1052/trading-journal/internal/models"
	"github.com/trogers1052/trading-journal/internal/store"
	"github.com/trogers1052/trading-journal/internal/trade"
)

var now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func testPolicy() (*Policy, models.Settings) {
	cfg := config.JournalConfig{MaxRiskPercent: decimal.NewFromInt(2), Accounts: config.DefaultAccounts()}
	settings := store.DefaultSettings(cfg.StartingValues(), cfg.MaxRiskPercent, now)
	return NewPolicy(cfg.Policies()), settings
}

func input(account, ticker, direction, entry, size, stop string) models.TradeInput {
	return models.TradeInput{
		Account:      account,
		Ticker:       ticker,
		Direction:    direction,
		EntryPrice:   models.ParseLooseDecimal(entry),
		PositionSize: models.ParseLooseDecimal(size),
		StopLoss:     models.ParseLooseDecimal(stop),
	}
}

func TestPolicyCheck(t *testing.T) {
	p, settings := testPolicy()

	t.Run("within the rules", func(t *testing.T) {
		v := p.Check(input("Income Generator", "KO", "Long", "60", "1200", ""), settings, nil, now)
		assert.Empty(t, v)
	})

	t.Run("position too large for the account", func(t *testing.T) {
		v := p.Check(input("Income Generator", "KO", "Long", "60", "2400", ""), settings, nil, now)
		require.Len(t, v, 1)
		assert.Contains(t, v[0], "exceeds 20% of Income Generator")
	})

	t.Run("short not allowed", func(t *testing.T) {
		v := p.Check(input("Income Generator", "KO", "Short", "60", "600", ""), settings, nil, now)
		require.Len(t, v, 1)
		assert.Contains(t, v[0], "short selling is not allowed")
	})

	t.Run("stop loss required", func(t *testing.T) {
		v := p.Check(input("Speculation", "TSLA", "Long", "200", "400", ""), settings, nil, now)
		require.Len(t, v, 1)
		assert.Contains(t, v[0], "requires a stop loss")
	})

	t.Run("more than available cash", func(t *testing.T) {
		s := settings
		s.Accounts = append([]models.Account(nil), settings.Accounts...)
		for i := range s.Accounts {
			if s.Accounts[i].Name == models.AccountTradingLab {
				s.Accounts[i].CurrentCash = decimal.NewFromInt(100)
			}
		}
		in := input("Trading Lab", "AMD", "Long", "100", "200", "99")
		assert.Empty(t, p.Check(in, s, nil, now), "cash shortfall does not block")

		notes := p.Advisories(in, s)
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0], "exceeds available cash")
		assert.Empty(t, p.Advisories(in, settings))
	})

	t.Run("risk above portfolio limit", func(t *testing.T) {
		// 2000 at 100 stopped at 50 risks 1000 of a 16000 portfolio
		v := p.Check(input("Income Generator", "KO", "Long", "100", "2000", "50"), settings, nil, now)
		require.Len(t, v, 1)
		assert.Contains(t, v[0], "risk 6.25%")
	})

	t.Run("uncategorized is only risk checked", func(t *testing.T) {
		v := p.Check(input("Whatever", "KO", "Short", "60", "100000", ""), settings, nil, now)
		assert.Empty(t, v)
	})
}

func TestPolicyCheckUsesBook(t *testing.T) {
	p, settings := testPolicy()

	var trades []models.Trade
	for i := 1; i <= 3; i++ {
		tr, err := trade.Create(input("Trading Lab", "SPY", "Long", "10", "50", "9"), trade.FormatID(i), now.AddDate(0, 0, -5))
		require.NoError(t, err)
		trades = append(trades, tr)
	}

	v := p.Check(input("Trading Lab", "QQQ", "Long", "10", "50", "9"), settings, trades, now)
	require.Len(t, v, 1)
	assert.Contains(t, v[0], "already has 3 open positions")

	exit := now.Add(-12 * time.Hour)
	loser, err := trade.Close(trades[0], models.ExitInput{ExitPrice: models.ParseLooseDecimal("8"), ExitDate: &exit}, now)
	require.NoError(t, err)
	trades[0] = loser

	v = p.Check(input("Trading Lab", "SPY", "Long", "10", "50", "9"), settings, trades, now)
	require.Len(t, v, 1)
	assert.Contains(t, v[0], "closed at a loss")

	later := now.AddDate(0, 0, 2)
	assert.Empty(t, p.Check(input("Trading Lab", "SPY", "Long", "10", "50", "9"), settings, trades, later))
}

func TestReviewProposal(t *testing.T) {
	p, settings := testPolicy()

	prop := Proposal{
		Account:         models.AccountIncomeGenerator,
		Ticker:          "KO",
		Direction:       "Short",
		EntryPrice:      models.ParseLooseDecimal("60"),
		PositionSize:    models.ParseLooseDecimal("600"),
		ValidationFlags: []string{"shorting in income account", ""},
	}

	r := p.ReviewProposal(prop, settings, nil, now)
	assert.True(t, r.Blocked())
	assert.Equal(t, []string{"short selling is not allowed in Income Generator", "shorting in income account"}, r.Flags())

	prop.Direction = "Long"
	r = p.ReviewProposal(prop, settings, nil, now)
	assert.False(t, r.Blocked())
	assert.Equal(t, []string{"shorting in income account"}, r.Flags())

	// inside the 20% limit but above what is left in the account
	low := settings
	low.Accounts = append([]models.Account(nil), settings.Accounts...)
	low.Accounts[0].CurrentCash = decimal.NewFromInt(500)
	r = p.ReviewProposal(prop, low, nil, now)
	assert.False(t, r.Blocked())
	assert.Equal(t, []string{"shorting in income account", "position size 600.00 exceeds available cash 500.00 in Income Generator"}, r.Flags())
}

func TestReviewProposalRejectsNonOpenActions(t *testing.T) {
	p, settings := testPolicy()

	for _, action := range []string{ActionClose, ActionRoll} {
		t.Run(action, func(t *testing.T) {
			r := p.ReviewProposal(Proposal{
				Account:      models.AccountIncomeGenerator,
				Ticker:       "ko",
				Action:       action,
				Direction:    "Long",
				EntryPrice:   models.ParseLooseDecimal("60"),
				PositionSize: models.ParseLooseDecimal("600"),
			}, settings, nil, now)
			assert.True(t, r.Blocked())
			require.Len(t, r.Violations, 1)
			assert.Equal(t, action+" KO does not open a position; record it against the existing trade instead", r.Violations[0])
		})
	}

	r := p.ReviewProposal(Proposal{Account: models.AccountIncomeGenerator, Ticker: "KO", Action: ActionOpen,
		EntryPrice: models.ParseLooseDecimal("60"), PositionSize: models.ParseLooseDecimal("600")}, settings, nil, now)
	assert.False(t, r.Blocked())
}

type blockingCategorizer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCategorizer) Categorize(ctx context.Context, text string) (Proposal, error) {
	close(b.started)
	<-b.release
	return Proposal{Ticker: "NVDA"}, nil
}

func TestSessionsOneInFlight(t *testing.T) {
	s := NewSessions()
	c := &blockingCategorizer{started: make(chan struct{}), release: make(chan struct{})}

	var wg sync.WaitGroup
	var first Proposal
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = s.Run(context.Background(), "dialog-1", c, "text")
	}()

	<-c.started

	_, err := s.Run(context.Background(), "dialog-1", NoopCategorizer{}, "text")
	assert.ErrorIs(t, err, ErrIntakeInFlight)

	_, err = s.Run(context.Background(), "dialog-2", NoopCategorizer{}, "text")
	assert.Equal(t, KindMissingCredential, KindOf(err))

	close(c.release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, "NVDA", first.Ticker)

	_, err = s.Run(context.Background(), "dialog-1", NoopCategorizer{}, "text")
	assert.Equal(t, KindMissingCredential, KindOf(err), "session is free again")
}

func TestSessionsDiscardAfterCancel(t *testing.T) {
	s := NewSessions()
	c := &blockingCategorizer{started: make(chan struct{}), release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		p, err := s.Run(ctx, "dialog", c, "text")
		assert.Empty(t, p.Ticker)
		done <- err
	}()

	<-c.started
	cancel()
	close(c.release)

	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}
