// Package store is the whole-document key/value boundary the journal persists through.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/models"
)

// Document keys
const (
	KeyTrades         = "trades"
	KeySettings       = "settings"
	KeyWatchlist      = "watchlist"
	KeyCircuitBreaker = "circuitBreaker"
)

// ErrNotFound is returned by a Backend when a key has never been saved
var ErrNotFound = errors.New("document not found")

// Backend loads and replaces whole documents by key
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Snapshot is the full persisted state of the journal
type Snapshot struct {
	Trades         []models.Trade
	Settings       models.Settings
	Watchlist      []models.WatchlistItem
	CircuitBreaker models.CircuitBreakerInfo
}

// Store reads and writes the journal documents through a Backend
type Store struct {
	backend Backend
}

// New creates a new Store
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// LoadSnapshot reads every document. Missing settings are initialised from defaults.
func (s *Store) LoadSnapshot(ctx context.Context, defaults models.Settings) (*Snapshot, bool, error) {
	snap := &Snapshot{}

	if _, err := s.load(ctx, KeyTrades, &snap.Trades); err != nil {
		return nil, false, err
	}

	found, err := s.load(ctx, KeySettings, &snap.Settings)
	if err != nil {
		return nil, false, err
	}
	if !found {
		snap.Settings = defaults
	}
	snap.Settings = ensureUncategorized(snap.Settings)

	if _, err := s.load(ctx, KeyWatchlist, &snap.Watchlist); err != nil {
		return nil, false, err
	}
	if _, err := s.load(ctx, KeyCircuitBreaker, &snap.CircuitBreaker); err != nil {
		return nil, false, err
	}

	if snap.Trades == nil {
		snap.Trades = []models.Trade{}
	}
	if snap.Watchlist == nil {
		snap.Watchlist = []models.WatchlistItem{}
	}
	return snap, !found, nil
}

// SaveTrades replaces the trades document
func (s *Store) SaveTrades(ctx context.Context, trades []models.Trade) error {
	return s.save(ctx, KeyTrades, trades)
}

// SaveSettings replaces the settings document
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	return s.save(ctx, KeySettings, settings)
}

// SaveWatchlist replaces the watchlist document
func (s *Store) SaveWatchlist(ctx context.Context, items []models.WatchlistItem) error {
	return s.save(ctx, KeyWatchlist, items)
}

// SaveCircuitBreaker replaces the circuit breaker document
func (s *Store) SaveCircuitBreaker(ctx context.Context, info models.CircuitBreakerInfo) error {
	return s.save(ctx, KeyCircuitBreaker, info)
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) load(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := s.backend.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.backend.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// DefaultSettings builds first-run settings from the configured starting values
func DefaultSettings(startingValues map[string]decimal.Decimal, maxRiskPercent decimal.Decimal, now time.Time) models.Settings {
	settings := models.Settings{
		MaxRiskPercent: maxRiskPercent,
		InitializedAt:  now,
		PortfolioValue: decimal.Zero,
	}
	for _, name := range models.NamedAccounts() {
		v := startingValues[name]
		settings.Accounts = append(settings.Accounts, models.Account{
			Name:          name,
			StartingValue: v,
			CurrentCash:   v,
		})
		settings.PortfolioValue = settings.PortfolioValue.Add(v)
	}
	return ensureUncategorized(settings)
}

// ensureUncategorized adds the fallback cash pool when missing
func ensureUncategorized(settings models.Settings) models.Settings {
	if _, ok := settings.FindAccount(models.AccountUncategorized); ok {
		return settings
	}
	accounts := make([]models.Account, len(settings.Accounts), len(settings.Accounts)+1)
	copy(accounts, settings.Accounts)
	settings.Accounts = append(accounts, models.Account{
		Name:          models.AccountUncategorized,
		StartingValue: decimal.Zero,
		CurrentCash:   decimal.Zero,
	})
	return settings
}
