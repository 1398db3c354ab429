// Package journal owns the in-memory journal state and serialises every
// mutation through one lock before persisting and publishing it.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/intake"
	"github.com/trogers1052/trading-journal/internal/ledger"
	"github.com/trogers1052/trading-journal/internal/logging"
	"github.com/trogers1052/trading-journal/internal/models"
	"github.com/trogers1052/trading-journal/internal/store"
	"github.com/trogers1052/trading-journal/internal/trade"
)

// Trade status filters for Trades
const (
	FilterAll    = ""
	FilterActive = "active"
	FilterClosed = "closed"
)

// EventPublisher receives trade changes after they are persisted
type EventPublisher interface {
	PublishTradeOpened(ctx context.Context, t models.Trade) error
	PublishTradeClosed(ctx context.Context, t models.Trade) error
	PublishMarkUpdated(ctx context.Context, t models.Trade) error
}

// Options configures optional collaborators of the Service
type Options struct {
	Policy      *intake.Policy
	Categorizer intake.Categorizer
	Events      EventPublisher
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Service is the journal's single writer
type Service struct {
	mu        sync.Mutex
	store     *store.Store
	book      trade.Book
	settings  models.Settings
	watchlist []models.WatchlistItem
	breaker   models.CircuitBreakerInfo

	policy      *intake.Policy
	categorizer intake.Categorizer
	sessions    *intake.Sessions
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// New loads the persisted snapshot and returns a ready Service. First-run
// settings are built from defaults and saved immediately.
func New(ctx context.Context, st *store.Store, defaults models.Settings, opts Options) (*Service, error) {
	snap, fresh, err := st.LoadSnapshot(ctx, defaults)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}

	s := &Service{
		store:       st,
		book:        trade.NewBook(snap.Trades),
		settings:    snap.Settings,
		watchlist:   snap.Watchlist,
		breaker:     snap.CircuitBreaker,
		policy:      opts.Policy,
		categorizer: opts.Categorizer,
		sessions:    intake.NewSessions(),
		events:      opts.Events,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if s.policy == nil {
		s.policy = intake.NewPolicy(nil)
	}
	if s.categorizer == nil {
		s.categorizer = intake.NoopCategorizer{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	if seq := s.book.MaxSequence(); seq > s.settings.TradeSequence {
		s.settings.TradeSequence = seq
	}

	if fresh {
		if err := st.SaveSettings(ctx, s.settings); err != nil {
			return nil, fmt.Errorf("save initial settings: %w", err)
		}
		s.logger.Info().Int("accounts", len(s.settings.Accounts)).Msg("Initialised journal settings")
	}

	if err := s.settleUndebited(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("trades", s.book.Len()).
		Int("active", len(s.book.Active())).
		Msg("Journal loaded")
	return s, nil
}

// CreateTrade opens a trade, debits its account and persists both. It returns
// the advisory flags attached to the trade. Policy violations block the trade
// unless the input sets Override.
func (s *Service) CreateTrade(ctx context.Context, in models.TradeInput) (models.Trade, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var flags []string

	name, known := models.CanonicalAccountName(in.Account)
	if !known {
		if name != "" {
			flags = append(flags, fmt.Sprintf("account %q is not recognised; filed under %s", name, models.AccountUncategorized))
		}
		name = models.AccountUncategorized
	}
	in.Account = name

	seq := s.settings.TradeSequence + 1
	t, err := trade.Create(in, trade.FormatID(seq), now)
	if err != nil {
		return models.Trade{}, nil, err
	}

	violations := s.policy.Check(in, s.settings, s.book.All(), now)
	if len(violations) > 0 && !in.Override {
		return models.Trade{}, nil, &PolicyError{Violations: violations}
	}
	if t.PortfolioValueOnEntry.IsZero() {
		t.PortfolioValueOnEntry = s.settings.PortfolioValue
	}
	if t.MaxRiskPercent.IsZero() {
		t.MaxRiskPercent = s.settings.MaxRiskPercent
	}
	flags = mergeFlags(t.ValidationFlags, violations, s.policy.Advisories(in, s.settings), flags)
	t.ValidationFlags = flags
	t.CashDebited = true

	book, err := s.book.Add(t)
	if err != nil {
		return models.Trade{}, nil, err
	}

	accounts, res := ledger.OpenPosition(s.settings.Accounts, t)
	if err := res.Err(); err != nil {
		return models.Trade{}, nil, err
	}

	settings := s.settings
	settings.Accounts = accounts
	settings.TradeSequence = seq

	if err := s.persist(ctx, book, settings); err != nil {
		return models.Trade{}, nil, err
	}
	s.book, s.settings = book, settings

	log := logging.WithTrade(s.logger, t.ID, t.Account)
	log.Info().
		Str("ticker", t.Ticker).
		Str("direction", string(t.Direction)).
		Str("position_size", t.PositionSize.String()).
		Bool("override", in.Override && len(violations) > 0).
		Msg("Trade opened")

	s.publish(ctx, t, s.eventsOpened)
	return t, flags, nil
}

// CloseTrade records the exit of an active trade and credits its account
func (s *Service) CloseTrade(ctx context.Context, id string, exit models.ExitInput) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.book.Get(id)
	if !ok {
		return models.Trade{}, fmt.Errorf("%w: %s", trade.ErrTradeNotFound, id)
	}

	closed, err := trade.Close(current, exit, s.now())
	if err != nil {
		return models.Trade{}, err
	}

	book, err := s.book.Replace(closed)
	if err != nil {
		return models.Trade{}, err
	}

	accounts, res := ledger.ClosePosition(s.settings.Accounts, closed)
	if res.Err() != nil {
		// trades persisted before accounts were routed settle into the fallback pool
		fallback := closed
		fallback.Account = models.AccountUncategorized
		accounts, res = ledger.ClosePosition(s.settings.Accounts, fallback)
		if err := res.Err(); err != nil {
			return models.Trade{}, err
		}
		s.logger.Warn().Str("trade_id", id).Str("account", closed.Account).Msg("Credited unknown account's close to Uncategorized")
	}

	settings := s.settings
	settings.Accounts = accounts

	if err := s.persist(ctx, book, settings); err != nil {
		return models.Trade{}, err
	}
	s.book, s.settings = book, settings

	log := logging.WithTrade(s.logger, closed.ID, closed.Account)
	log.Info().
		Str("exit_price", closed.ExitData.ExitPrice.String()).
		Str("realized_pl", ledger.RealizedPL(closed).StringFixed(2)).
		Str("cash_delta", res.Delta.StringFixed(2)).
		Msg("Trade closed")

	s.publish(ctx, closed, s.eventsClosed)
	return closed, nil
}

// UpdateMark stores the last known price of an active trade
func (s *Service) UpdateMark(ctx context.Context, id string, price decimal.Decimal) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.book.Get(id)
	if !ok {
		return models.Trade{}, fmt.Errorf("%w: %s", trade.ErrTradeNotFound, id)
	}

	marked, err := trade.WithMark(current, price)
	if err != nil {
		return models.Trade{}, err
	}

	book, err := s.book.Replace(marked)
	if err != nil {
		return models.Trade{}, err
	}

	if err := s.store.SaveTrades(ctx, book.All()); err != nil {
		return models.Trade{}, fmt.Errorf("save trades: %w", err)
	}
	s.book = book

	s.logger.Debug().Str("trade_id", id).Str("price", price.String()).Msg("Mark updated")
	s.publish(ctx, marked, s.eventsMarked)
	return marked, nil
}

// settleUndebited takes the position size of active trades that were filed
// without a cash debit out of Uncategorized, so their close credits only P/L.
func (s *Service) settleUndebited(ctx context.Context) error {
	accounts, changed, total := ledger.SettleUndebited(s.settings.Accounts, s.book.Active())
	if len(changed) == 0 {
		return nil
	}

	book := s.book
	for _, t := range changed {
		var err error
		if book, err = book.Replace(t); err != nil {
			return err
		}
	}
	settings := s.settings
	settings.Accounts = accounts

	if err := s.persist(ctx, book, settings); err != nil {
		return fmt.Errorf("settle undebited trades: %w", err)
	}
	s.book, s.settings = book, settings

	s.logger.Warn().
		Int("trades", len(changed)).
		Str("debited", total.StringFixed(2)).
		Msg("Debited Uncategorized for trades opened without a cash debit")
	return nil
}

// persist writes trades then settings. When the settings write fails the
// previous trades document is restored so the two stay consistent.
func (s *Service) persist(ctx context.Context, book trade.Book, settings models.Settings) error {
	if err := s.store.SaveTrades(ctx, book.All()); err != nil {
		return fmt.Errorf("save trades: %w", err)
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		if rbErr := s.store.SaveTrades(ctx, s.book.All()); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("Failed to restore trades after settings save failure")
		}
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Service) eventsOpened(ctx context.Context, t models.Trade) error {
	return s.events.PublishTradeOpened(ctx, t)
}

func (s *Service) eventsClosed(ctx context.Context, t models.Trade) error {
	return s.events.PublishTradeClosed(ctx, t)
}

func (s *Service) eventsMarked(ctx context.Context, t models.Trade) error {
	return s.events.PublishMarkUpdated(ctx, t)
}

// publish is best effort; the change is already persisted
func (s *Service) publish(ctx context.Context, t models.Trade, send func(context.Context, models.Trade) error) {
	if s.events == nil {
		return
	}
	if err := send(ctx, t); err != nil {
		s.logger.Warn().Err(err).Str("trade_id", t.ID).Msg("Failed to publish journal event")
	}
}

// Trade returns one trade by id
func (s *Service) Trade(id string) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.book.Get(id)
	if !ok {
		return models.Trade{}, fmt.Errorf("%w: %s", trade.ErrTradeNotFound, id)
	}
	return t, nil
}

// Trades returns trade views in creation order, optionally filtered by status
func (s *Service) Trades(status string) ([]ledger.TradeView, error) {
	s.mu.Lock()
	book := s.book
	s.mu.Unlock()

	var trades []models.Trade
	switch strings.ToLower(status) {
	case FilterAll:
		trades = book.All()
	case FilterActive:
		trades = book.Active()
	case FilterClosed:
		trades = book.Closed()
	default:
		return nil, trade.NewValidationError("status", status, "must be active or closed")
	}
	return s.views(trades), nil
}

// OpenPositions returns the active trades of one account
func (s *Service) OpenPositions(account string) ([]ledger.TradeView, error) {
	name, ok := models.CanonicalAccountName(account)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	s.mu.Lock()
	book := s.book
	s.mu.Unlock()

	return s.views(book.ActiveIn(name)), nil
}

// Valuations values every account, Uncategorized last
func (s *Service) Valuations() []ledger.Valuation {
	s.mu.Lock()
	book, settings := s.book, s.settings
	s.mu.Unlock()

	out := make([]ledger.Valuation, 0, len(settings.Accounts))
	for _, acct := range settings.Accounts {
		out = append(out, ledger.AccountValuation(acct, book.ActiveIn(acct.Name)))
	}
	return out
}

// AnalyticsByAccount aggregates closed trades per account
func (s *Service) AnalyticsByAccount() []ledger.Stats {
	s.mu.Lock()
	book, settings := s.book, s.settings
	s.mu.Unlock()

	return ledger.ByAccount(book.Closed(), settings.Accounts)
}

// AnalyticsBySource aggregates closed trades per provenance source
func (s *Service) AnalyticsBySource() []ledger.Stats {
	s.mu.Lock()
	book := s.book
	s.mu.Unlock()

	return ledger.BySource(book.Closed())
}

// Summary aggregates every closed trade
func (s *Service) Summary() ledger.Stats {
	s.mu.Lock()
	book := s.book
	s.mu.Unlock()

	return ledger.Summarize("all", book.Closed())
}

// Settings returns the current settings
func (s *Service) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.settings
	out.Accounts = append([]models.Account(nil), s.settings.Accounts...)
	return out
}

// Watchlist returns the persisted watchlist
func (s *Service) Watchlist() []models.WatchlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.WatchlistItem{}, s.watchlist...)
}

// CircuitBreaker returns the persisted circuit breaker state
func (s *Service) CircuitBreaker() models.CircuitBreakerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.breaker
}

// Draft is an intake proposal reviewed against the account rules, plus the
// create-trade input the trader can confirm
type Draft struct {
	intake.Review
	Input models.TradeInput `json:"input"`
}

// Propose categorises free text. The model call runs outside the journal
// lock; one call per session may be in flight.
func (s *Service) Propose(ctx context.Context, sessionID, text string) (Draft, error) {
	if strings.TrimSpace(text) == "" {
		return Draft{}, trade.NewValidationError("text", text, "is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return Draft{}, trade.NewValidationError("sessionId", sessionID, "is required")
	}

	proposal, err := s.sessions.Run(ctx, sessionID, s.categorizer, text)
	if err != nil {
		if !errors.Is(err, intake.ErrIntakeInFlight) {
			s.logger.Warn().Err(err).Str("session", sessionID).Msg("Intake failed")
		}
		return Draft{}, err
	}

	s.mu.Lock()
	book, settings := s.book, s.settings
	s.mu.Unlock()

	review := s.policy.ReviewProposal(proposal, settings, book.All(), s.now())
	input := proposal.TradeInput(text)
	input.ValidationFlags = review.Flags()

	return Draft{Review: review, Input: input}, nil
}

func (s *Service) views(trades []models.Trade) []ledger.TradeView {
	now := s.now()
	out := make([]ledger.TradeView, 0, len(trades))
	for _, t := range trades {
		out = append(out, ledger.View(t, now))
	}
	return out
}
