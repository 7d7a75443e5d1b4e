package strategy

import (
	"bytes"
	"testing"
	"time"

	"multi-strategy-bot-go/internal/market"

	"github.com/stretchr/testify/assert"
)

// frameFromCloses builds a frame where every candle spans close±1.
func frameFromCloses(closes []float64) *market.Dataframe {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 10,
		}
	}
	return market.NewDataframe("BTCUSDT", candles)
}

func TestSupertrendStrategy_Calculate(t *testing.T) {
	s := NewSupertrendStrategy(2, 1)

	t.Run("FlipsToDowntrendBelowLowerBand", func(t *testing.T) {
		// With period=2 and ±1 candles the bands settle at close±2, so a
		// drop to 90 pierces the previous lower band at 98.
		out, err := s.Calculate(frameFromCloses([]float64{100, 100, 100, 90}))

		assert.NoError(t, err)
		assert.Equal(t, []bool{true, true, true, false}, out.Signal(ColInUptrend))
	})

	t.Run("FlipsBackToUptrendAboveUpperBand", func(t *testing.T) {
		out, err := s.Calculate(frameFromCloses([]float64{100, 100, 100, 90, 90, 101}))

		assert.NoError(t, err)
		assert.Equal(t, []bool{true, true, true, false, false, true}, out.Signal(ColInUptrend))
	})

	t.Run("WarmupRowsStayOnInitialTrend", func(t *testing.T) {
		out, err := s.Calculate(frameFromCloses([]float64{100, 100}))

		assert.NoError(t, err)
		assert.Equal(t, []bool{true, true}, out.Signal(ColInUptrend))
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		df := frameFromCloses([]float64{100, 101, 102})
		_, err := s.Calculate(df)

		assert.NoError(t, err)
		assert.Empty(t, df.Metadata)
		assert.Empty(t, df.Signals)
	})
}

func TestSupertrendStrategy_Signal(t *testing.T) {
	s := NewSupertrendStrategy(2, 1)

	makeFrame := func(uptrend []bool) *market.Dataframe {
		df := frameFromCloses(make([]float64, len(uptrend)))
		df.SetSignal(ColInUptrend, uptrend)
		return df
	}

	t.Run("BuyOnFlipUp", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{false, true}))
		assert.NoError(t, err)
		assert.Equal(t, ActionBuy, action)
	})

	t.Run("SellOnFlipDown", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{true, false}))
		assert.NoError(t, err)
		assert.Equal(t, ActionSell, action)
	})

	t.Run("HoldWithoutFlip", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{true, true}))
		assert.NoError(t, err)
		assert.Equal(t, ActionHold, action)
	})

	t.Run("SingleRowHolds", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{true}))
		assert.NoError(t, err)
		assert.Equal(t, ActionHold, action)
	})

	t.Run("EmptyFrameFails", func(t *testing.T) {
		_, err := s.Signal(makeFrame(nil))
		assert.ErrorIs(t, err, market.ErrEmpty)
	})
}

func TestSupertrendStrategy_Plot(t *testing.T) {
	s := NewSupertrendStrategy(2, 1)
	out, err := s.Calculate(frameFromCloses([]float64{100, 100, 100, 90, 90, 101}))
	assert.NoError(t, err)

	var buf bytes.Buffer
	err = s.Plot(out, &buf)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Supertrend")
}
