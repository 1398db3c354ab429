package trade

import (
	"fmt"

	"github.com/trogers1052/trading-journal/internal/models"
)

// Book is an immutable set of trades keyed by id. Every change returns a new
// Book, so a snapshot handed to a reader never changes underneath it.
type Book struct {
	order []string
	byID  map[string]models.Trade
}

// NewBook builds a Book from a persisted trade list. Later duplicates of an id win.
func NewBook(trades []models.Trade) Book {
	b := Book{byID: make(map[string]models.Trade, len(trades))}
	for _, t := range trades {
		if _, seen := b.byID[t.ID]; !seen {
			b.order = append(b.order, t.ID)
		}
		b.byID[t.ID] = Normalize(t)
	}
	return b
}

// Len returns the number of trades
func (b Book) Len() int {
	return len(b.order)
}

// Get looks up a trade by id
func (b Book) Get(id string) (models.Trade, bool) {
	t, ok := b.byID[id]
	return t, ok
}

// Add returns a new Book containing t. The id must be new.
func (b Book) Add(t models.Trade) (Book, error) {
	if _, exists := b.byID[t.ID]; exists {
		return b, fmt.Errorf("%w: %s", ErrDuplicateTrade, t.ID)
	}
	next := b.clone()
	next.order = append(next.order, t.ID)
	next.byID[t.ID] = Normalize(t)
	return next, nil
}

// Replace returns a new Book where the record with t's id is superseded by t
func (b Book) Replace(t models.Trade) (Book, error) {
	if _, exists := b.byID[t.ID]; !exists {
		return b, fmt.Errorf("%w: %s", ErrTradeNotFound, t.ID)
	}
	next := b.clone()
	next.byID[t.ID] = Normalize(t)
	return next, nil
}

// All returns trades in creation order
func (b Book) All() []models.Trade {
	return b.filter(func(models.Trade) bool { return true })
}

// Active returns trades with an open position
func (b Book) Active() []models.Trade {
	return b.filter(IsActive)
}

// Closed returns trades with exit data
func (b Book) Closed() []models.Trade {
	return b.filter(IsClosed)
}

// ActiveIn returns the open trades attributed to one account
func (b Book) ActiveIn(account string) []models.Trade {
	return b.filter(func(t models.Trade) bool {
		return IsActive(t) && t.Account == account
	})
}

// MaxSequence returns the highest TRADE-### number present
func (b Book) MaxSequence() int {
	max := 0
	for _, id := range b.order {
		if n, ok := ParseID(id); ok && n > max {
			max = n
		}
	}
	return max
}

func (b Book) filter(keep func(models.Trade) bool) []models.Trade {
	out := make([]models.Trade, 0, len(b.order))
	for _, id := range b.order {
		if t := b.byID[id]; keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (b Book) clone() Book {
	next := Book{
		order: make([]string, len(b.order), len(b.order)+1),
		byID:  make(map[string]models.Trade, len(b.byID)+1),
	}
	copy(next.order, b.order)
	for id, t := range b.byID {
		next.byID[id] = t
	}
	return next
}
