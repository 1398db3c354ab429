package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trading-journal/internal/models"
)

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	return nil
}

func TestProducer_PublishTradeOpened(t *testing.T) {
	writer := &mockWriter{}
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &Producer{writer: writer, topic: "journal-events", now: func() time.Time { return ts }}

	tr := models.Trade{ID: "TRADE-004", Account: models.AccountTradingLab, Ticker: "PLTR", EntryPrice: decimal.NewFromInt(25)}
	require.NoError(t, p.PublishTradeOpened(context.Background(), tr))

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, "TRADE-004", string(msg.Key))

	var event models.JournalEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, models.EventTradeOpened, event.EventType)
	assert.Equal(t, models.AccountTradingLab, event.Account)
	assert.Len(t, event.EventID, 26)
	assert.True(t, ts.Equal(event.Timestamp))
	require.NotNil(t, event.Trade)
	assert.Equal(t, "PLTR", event.Trade.Ticker)
}

func TestProducer_writeError(t *testing.T) {
	p := &Producer{writer: &mockWriter{err: errors.New("broker down")}, now: time.Now}

	err := p.PublishTradeClosed(context.Background(), models.Trade{ID: "TRADE-001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewIDIsMonotonic(t *testing.T) {
	ts := time.Now()
	prev := NewID(ts)
	for i := 0; i < 100; i++ {
		next := NewID(ts)
		assert.Greater(t, next, prev)
		prev = next
	}
}
