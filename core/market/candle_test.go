package market_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierbus/courier/core/market"
)

func makeCandle(t *testing.T, pair, open, high, low, close string, ts, frame float64) *market.Candle {
	t.Helper()
	c, err := market.NewCandle(pair, open, high, low, close, frame)
	require.NoError(t, err)
	c.TS = ts
	return c
}

func TestNewCandle(t *testing.T) {
	t.Parallel()

	t.Run("accepts decimal OHLC strings", func(t *testing.T) {
		t.Parallel()

		c, err := market.NewCandle("BTCUSD", "100", "110", "95", "105", 60)
		require.NoError(t, err)
		assert.Equal(t, "BTCUSD", c.Pair)
		assert.Equal(t, 60.0, c.Frame)
		assert.Greater(t, c.TS, 0.0)
	})

	t.Run("rejects non-decimal values", func(t *testing.T) {
		t.Parallel()

		_, err := market.NewCandle("BTCUSD", "100", "high", "95", "105", 60)
		require.ErrorIs(t, err, market.ErrBadShape)
	})
}

func TestMergeCandles(t *testing.T) {
	t.Parallel()

	t.Run("folds a sequence into a single bar", func(t *testing.T) {
		t.Parallel()

		merged, err := market.MergeCandles(
			makeCandle(t, "BTCUSD", "102", "111", "98", "108", 200, 60),
			makeCandle(t, "BTCUSD", "100", "110", "95", "102", 100, 60),
			makeCandle(t, "BTCUSD", "108", "120", "99", "115", 300, 60),
		)
		require.NoError(t, err)
		assert.Equal(t, "100", merged.Open, "open of the earliest bar")
		assert.Equal(t, "115", merged.Close, "close of the latest bar")
		assert.Equal(t, "120", merged.High)
		assert.Equal(t, "95", merged.Low)
		assert.Equal(t, 300.0, merged.TS)
		assert.Equal(t, 260.0, merged.Frame, "(latest - earliest) + latest frame")
	})

	t.Run("single candle merges to itself", func(t *testing.T) {
		t.Parallel()

		c := makeCandle(t, "BTCUSD", "100", "110", "95", "105", 100, 60)
		merged, err := market.MergeCandles(c)
		require.NoError(t, err)
		assert.Equal(t, c, merged)
	})

	t.Run("rejects mixed pairs", func(t *testing.T) {
		t.Parallel()

		_, err := market.MergeCandles(
			makeCandle(t, "BTCUSD", "100", "110", "95", "105", 100, 60),
			makeCandle(t, "ETHUSD", "100", "110", "95", "105", 200, 60),
		)
		require.ErrorIs(t, err, market.ErrIncompatiblePairs)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := market.MergeCandles()
		require.ErrorIs(t, err, market.ErrNoCandles)
	})
}

func TestCandle_Hydrate(t *testing.T) {
	t.Parallel()

	t.Run("restores positional fields", func(t *testing.T) {
		t.Parallel()

		c := makeCandle(t, "BTCUSD", "100", "110", "95", "105", 123.5, 60)
		got := new(market.Candle)
		require.NoError(t, got.Hydrate(c.Fields()))
		assert.Equal(t, c, got)
	})

	t.Run("rejects short field lists", func(t *testing.T) {
		t.Parallel()

		got := new(market.Candle)
		err := got.Hydrate([]any{market.TagCandle, 1.0, "BTCUSD"})
		require.ErrorIs(t, err, market.ErrBadShape)
	})
}
