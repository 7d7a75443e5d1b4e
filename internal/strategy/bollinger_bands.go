package strategy

import (
	"fmt"
	"io"

	"multi-strategy-bot-go/internal/indicator"
	"multi-strategy-bot-go/internal/market"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Column names added by the Bollinger Bands strategy.
const (
	ColBBMiddle     = "bb_middle"
	ColBBStd        = "bb_std"
	ColBBUpper      = "bb_upper"
	ColBBLower      = "bb_lower"
	ColAboveUpper   = "above_upper"
	ColBelowLower   = "below_lower"
	ColBBBuySignal  = "bb_buy_signal"
	ColBBSellSignal = "bb_sell_signal"
)

// BollingerBandsStrategy trades band re-entries: a close moving back inside
// the bands after an excursion below (above) the lower (upper) band is a buy
// (sell) signal.
type BollingerBandsStrategy struct {
	period int
	numStd float64
}

// NewBollingerBandsStrategy creates a Bollinger Bands strategy with the given
// moving-average period and band width in standard deviations.
func NewBollingerBandsStrategy(period int, numStd float64) *BollingerBandsStrategy {
	return &BollingerBandsStrategy{period: period, numStd: numStd}
}

// Name returns the unique name of the strategy.
func (s *BollingerBandsStrategy) Name() string {
	return "Bollinger Bands"
}

// Calculate annotates a copy of the dataframe with the bands, the excursion
// columns and the re-entry signal columns.
func (s *BollingerBandsStrategy) Calculate(df *market.Dataframe) (*market.Dataframe, error) {
	out := df.Clone()
	n := out.Len()

	middle := indicator.SMA(out.Close, s.period)
	std := indicator.StdDev(out.Close, s.period)

	upper := make([]float64, n)
	lower := make([]float64, n)
	aboveUpper := make([]bool, n)
	belowLower := make([]bool, n)
	for i := 0; i < n; i++ {
		upper[i] = middle[i] + std[i]*s.numStd
		lower[i] = middle[i] - std[i]*s.numStd
		// NaN bands from the warm-up window compare false.
		aboveUpper[i] = out.Close[i] > upper[i]
		belowLower[i] = out.Close[i] < lower[i]
	}

	buySignals := make([]bool, n)
	sellSignals := make([]bool, n)
	for i := 1; i < n; i++ {
		if belowLower[i-1] && !belowLower[i] {
			buySignals[i] = true
		}
		if aboveUpper[i-1] && !aboveUpper[i] {
			sellSignals[i] = true
		}
	}

	out.SetColumn(ColBBMiddle, middle)
	out.SetColumn(ColBBStd, std)
	out.SetColumn(ColBBUpper, upper)
	out.SetColumn(ColBBLower, lower)
	out.SetSignal(ColAboveUpper, aboveUpper)
	out.SetSignal(ColBelowLower, belowLower)
	out.SetSignal(ColBBBuySignal, buySignals)
	out.SetSignal(ColBBSellSignal, sellSignals)

	return out, nil
}

// Signal resolves the action from the re-entry columns on the last row.
func (s *BollingerBandsStrategy) Signal(df *market.Dataframe) (Action, error) {
	buy, err := df.LastSignal(ColBBBuySignal)
	if err != nil {
		return "", fmt.Errorf("bollinger bands signal: %w", err)
	}
	if buy {
		return ActionBuy, nil
	}

	sell, err := df.LastSignal(ColBBSellSignal)
	if err != nil {
		return "", fmt.Errorf("bollinger bands signal: %w", err)
	}
	if sell {
		return ActionSell, nil
	}

	return ActionHold, nil
}

// Plot renders the price with all three bands and the re-entry points.
func (s *BollingerBandsStrategy) Plot(df *market.Dataframe, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Bollinger Bands (Period=%d, StdDev=%v)", s.period, s.numStd),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Left: "left"}),
	)

	line.SetXAxis(chartXAxis(df)).
		AddSeries("Price", chartLineData(df.Close)).
		AddSeries("Upper Band", chartLineData(df.Column(ColBBUpper))).
		AddSeries("Middle Band", chartLineData(df.Column(ColBBMiddle))).
		AddSeries("Lower Band", chartLineData(df.Column(ColBBLower)))

	scatter := charts.NewScatter()
	scatter.SetXAxis(chartXAxis(df)).
		AddSeries("Buy Signal", chartMarkerData(df, ColBBBuySignal)).
		AddSeries("Sell Signal", chartMarkerData(df, ColBBSellSignal))
	line.Overlap(scatter)

	return line.Render(w)
}
