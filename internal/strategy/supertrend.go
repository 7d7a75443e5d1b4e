package strategy

import (
	"fmt"
	"io"
	"math"

	"multi-strategy-bot-go/internal/indicator"
	"multi-strategy-bot-go/internal/market"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Column names added by the Supertrend strategy.
const (
	ColATR       = "atr"
	ColUpperBand = "upperband"
	ColLowerBand = "lowerband"
	ColInUptrend = "in_uptrend"
)

// SupertrendStrategy follows the Supertrend indicator: ATR bands around the
// median price, with the trend flipping when the close crosses the previous
// band.
type SupertrendStrategy struct {
	period     int
	multiplier float64
}

// NewSupertrendStrategy creates a Supertrend strategy with the given ATR
// period and band multiplier.
func NewSupertrendStrategy(period int, multiplier float64) *SupertrendStrategy {
	return &SupertrendStrategy{period: period, multiplier: multiplier}
}

// Name returns the unique name of the strategy.
func (s *SupertrendStrategy) Name() string {
	return "Supertrend"
}

// Calculate annotates a copy of the dataframe with the ATR bands and the
// in_uptrend column.
func (s *SupertrendStrategy) Calculate(df *market.Dataframe) (*market.Dataframe, error) {
	out := df.Clone()
	n := out.Len()

	atr := indicator.ATR(out.High, out.Low, out.Close, s.period)
	upper := make([]float64, n)
	lower := make([]float64, n)
	uptrend := make([]bool, n)

	for i := 0; i < n; i++ {
		hl2 := (out.High[i] + out.Low[i]) / 2
		upper[i] = hl2 + s.multiplier*atr[i]
		lower[i] = hl2 - s.multiplier*atr[i]
		uptrend[i] = true
	}

	for i := 1; i < n; i++ {
		switch {
		case out.Close[i] > upper[i-1]:
			uptrend[i] = true
		case out.Close[i] < lower[i-1]:
			uptrend[i] = false
		default:
			// Comparisons against a NaN band land here too, which keeps
			// the warm-up rows on the previous trend.
			uptrend[i] = uptrend[i-1]

			// Ratchet the active band so it only tightens with the trend.
			if uptrend[i] && lower[i] < lower[i-1] {
				lower[i] = lower[i-1]
			}
			if !uptrend[i] && upper[i] > upper[i-1] {
				upper[i] = upper[i-1]
			}
		}
	}

	out.SetColumn(ColATR, atr)
	out.SetColumn(ColUpperBand, upper)
	out.SetColumn(ColLowerBand, lower)
	out.SetSignal(ColInUptrend, uptrend)

	return out, nil
}

// Signal resolves the action from a trend flip between the last two rows.
// A single-row frame has no previous trend and resolves to hold.
func (s *SupertrendStrategy) Signal(df *market.Dataframe) (Action, error) {
	uptrend := df.Signal(ColInUptrend)
	if len(uptrend) == 0 {
		return "", fmt.Errorf("supertrend signal: %w", market.ErrEmpty)
	}
	if len(uptrend) < 2 {
		return ActionHold, nil
	}

	last, prev := uptrend[len(uptrend)-1], uptrend[len(uptrend)-2]
	switch {
	case !prev && last:
		return ActionBuy, nil
	case prev && !last:
		return ActionSell, nil
	default:
		return ActionHold, nil
	}
}

// Plot renders the price with both bands and the trend flips marked.
func (s *SupertrendStrategy) Plot(df *market.Dataframe, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Supertrend (Period=%d, Mult=%v)", s.period, s.multiplier),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Left: "left"}),
	)

	line.SetXAxis(chartXAxis(df)).
		AddSeries("Price", chartLineData(df.Close)).
		AddSeries("Upper Band", chartLineData(df.Column(ColUpperBand))).
		AddSeries("Lower Band", chartLineData(df.Column(ColLowerBand)))

	scatter := charts.NewScatter()
	scatter.SetXAxis(chartXAxis(df)).
		AddSeries("Uptrend", trendMarkers(df, true)).
		AddSeries("Downtrend", trendMarkers(df, false))
	line.Overlap(scatter)

	return line.Render(w)
}

// trendMarkers builds scatter points at the close price for rows in the
// requested trend direction.
func trendMarkers(df *market.Dataframe, up bool) []opts.ScatterData {
	uptrend := df.Signal(ColInUptrend)
	data := make([]opts.ScatterData, df.Len())
	for i := range data {
		if i < len(uptrend) && uptrend[i] == up && !math.IsNaN(df.Close[i]) {
			data[i] = opts.ScatterData{Value: df.Close[i], SymbolSize: 6}
			continue
		}
		data[i] = opts.ScatterData{Value: "-"}
	}
	return data
}
