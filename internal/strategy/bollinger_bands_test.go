package strategy

import (
	"bytes"
	"testing"

	"multi-strategy-bot-go/internal/market"

	"github.com/stretchr/testify/assert"
)

func TestBollingerBandsStrategy_Calculate(t *testing.T) {
	s := NewBollingerBandsStrategy(3, 1)

	t.Run("BuyOnReentryFromBelow", func(t *testing.T) {
		// The dip to 4 pierces the lower band; the bounce back inside on
		// the next row is the buy signal.
		out, err := s.Calculate(frameFromCloses([]float64{10, 10, 10, 4, 10}))

		assert.NoError(t, err)
		assert.Equal(t, []bool{false, false, false, true, false}, out.Signal(ColBelowLower))
		assert.Equal(t, []bool{false, false, false, false, true}, out.Signal(ColBBBuySignal))
		assert.NotContains(t, out.Signal(ColBBSellSignal), true)
	})

	t.Run("SellOnReentryFromAbove", func(t *testing.T) {
		out, err := s.Calculate(frameFromCloses([]float64{10, 10, 10, 16, 10}))

		assert.NoError(t, err)
		assert.Equal(t, []bool{false, false, false, true, false}, out.Signal(ColAboveUpper))
		assert.Equal(t, []bool{false, false, false, false, true}, out.Signal(ColBBSellSignal))
		assert.NotContains(t, out.Signal(ColBBBuySignal), true)
	})

	t.Run("WarmupWindowStaysInside", func(t *testing.T) {
		out, err := s.Calculate(frameFromCloses([]float64{10, 20}))

		assert.NoError(t, err)
		assert.NotContains(t, out.Signal(ColAboveUpper), true)
		assert.NotContains(t, out.Signal(ColBelowLower), true)
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		df := frameFromCloses([]float64{10, 10, 10, 4, 10})
		_, err := s.Calculate(df)

		assert.NoError(t, err)
		assert.Empty(t, df.Metadata)
		assert.Empty(t, df.Signals)
	})
}

func TestBollingerBandsStrategy_Signal(t *testing.T) {
	s := NewBollingerBandsStrategy(3, 1)

	makeFrame := func(buys, sells []bool) *market.Dataframe {
		df := frameFromCloses(make([]float64, len(buys)))
		df.SetSignal(ColBBBuySignal, buys)
		df.SetSignal(ColBBSellSignal, sells)
		return df
	}

	t.Run("BuyOnLastRow", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{false, true}, []bool{false, false}))
		assert.NoError(t, err)
		assert.Equal(t, ActionBuy, action)
	})

	t.Run("SellOnLastRow", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{false, false}, []bool{false, true}))
		assert.NoError(t, err)
		assert.Equal(t, ActionSell, action)
	})

	t.Run("HoldOtherwise", func(t *testing.T) {
		action, err := s.Signal(makeFrame([]bool{false, false}, []bool{false, false}))
		assert.NoError(t, err)
		assert.Equal(t, ActionHold, action)
	})

	t.Run("EmptyFrameFails", func(t *testing.T) {
		_, err := s.Signal(makeFrame(nil, nil))
		assert.ErrorIs(t, err, market.ErrEmpty)
	})
}

func TestBollingerBandsStrategy_Plot(t *testing.T) {
	s := NewBollingerBandsStrategy(3, 1)
	out, err := s.Calculate(frameFromCloses([]float64{10, 10, 10, 4, 10}))
	assert.NoError(t, err)

	var buf bytes.Buffer
	err = s.Plot(out, &buf)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Bollinger Bands")
}
