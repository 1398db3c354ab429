package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/trogers1052/trading-journal/internal/models"
	"github.com/trogers1052/trading-journal/internal/store"
)

func setupRedis(t *testing.T) *Redis {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	r, err := NewRedis(ctx, endpoint, "", 0, "test")
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestKeys(t *testing.T) {
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	defer r.Close()

	assert.Equal(t, "journal:doc:trades", r.docKey(store.KeyTrades))
	assert.Equal(t, "journal:cmd:abc", r.commandKey("abc"))
}

func TestRedisBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := setupRedis(t)
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		_, err := r.Load(ctx, store.KeySettings)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("snapshot round trip", func(t *testing.T) {
		st := store.New(r)
		require.NoError(t, st.SaveTrades(ctx, []models.Trade{{
			ID:           "TRADE-001",
			Ticker:       "AAPL",
			EntryPrice:   decimal.NewFromInt(150),
			PositionSize: decimal.NewFromInt(15000),
			ShareCount:   decimal.NewFromInt(100),
			Status:       models.StatusActive,
		}}))

		snap, fresh, err := st.LoadSnapshot(ctx, models.Settings{})
		require.NoError(t, err)
		assert.True(t, fresh, "settings were never saved")
		require.Len(t, snap.Trades, 1)
		assert.True(t, decimal.NewFromInt(100).Equal(snap.Trades[0].ShareCount))
	})

	t.Run("command ids", func(t *testing.T) {
		seen, err := r.CommandSeen(ctx, "cmd-9")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, r.MarkCommand(ctx, "cmd-9", "cli"))

		seen, err = r.CommandSeen(ctx, "cmd-9")
		require.NoError(t, err)
		assert.True(t, seen)
	})
}
