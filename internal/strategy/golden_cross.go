package strategy

import (
	"fmt"
	"io"

	"multi-strategy-bot-go/internal/indicator"
	"multi-strategy-bot-go/internal/market"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Column names added by the golden-cross strategy.
const (
	ColGoldenCross = "golden_cross"
	ColDeathCross  = "death_cross"
)

// GoldenCrossStrategy trades moving-average crossovers: the short MA crossing
// above the long MA is a golden cross (buy), crossing below a death cross
// (sell).
type GoldenCrossStrategy struct {
	shortPeriod int
	longPeriod  int
}

// NewGoldenCrossStrategy creates a moving-average crossover strategy.
func NewGoldenCrossStrategy(shortPeriod, longPeriod int) *GoldenCrossStrategy {
	return &GoldenCrossStrategy{shortPeriod: shortPeriod, longPeriod: longPeriod}
}

// Name returns the unique name of the strategy.
func (s *GoldenCrossStrategy) Name() string {
	return "Golden Cross"
}

// shortCol and longCol name the MA columns after their periods, e.g. ma_50.
func (s *GoldenCrossStrategy) shortCol() string { return fmt.Sprintf("ma_%d", s.shortPeriod) }
func (s *GoldenCrossStrategy) longCol() string  { return fmt.Sprintf("ma_%d", s.longPeriod) }

// Calculate annotates a copy of the dataframe with both moving averages and
// the crossover columns. Rows inside an MA warm-up window never cross since
// NaN comparisons are false.
func (s *GoldenCrossStrategy) Calculate(df *market.Dataframe) (*market.Dataframe, error) {
	out := df.Clone()
	n := out.Len()

	maShort := indicator.SMA(out.Close, s.shortPeriod)
	maLong := indicator.SMA(out.Close, s.longPeriod)

	golden := make([]bool, n)
	death := make([]bool, n)
	for i := 1; i < n; i++ {
		if maShort[i-1] <= maLong[i-1] && maShort[i] > maLong[i] {
			golden[i] = true
		}
		if maShort[i-1] >= maLong[i-1] && maShort[i] < maLong[i] {
			death[i] = true
		}
	}

	out.SetColumn(s.shortCol(), maShort)
	out.SetColumn(s.longCol(), maLong)
	out.SetSignal(ColGoldenCross, golden)
	out.SetSignal(ColDeathCross, death)

	return out, nil
}

// Signal resolves the action from the crossover columns on the last row.
func (s *GoldenCrossStrategy) Signal(df *market.Dataframe) (Action, error) {
	golden, err := df.LastSignal(ColGoldenCross)
	if err != nil {
		return "", fmt.Errorf("golden cross signal: %w", err)
	}
	if golden {
		return ActionBuy, nil
	}

	death, err := df.LastSignal(ColDeathCross)
	if err != nil {
		return "", fmt.Errorf("golden cross signal: %w", err)
	}
	if death {
		return ActionSell, nil
	}

	return ActionHold, nil
}

// Plot renders the price, both moving averages and the crossover points.
func (s *GoldenCrossStrategy) Plot(df *market.Dataframe, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Moving Average Crossover (%d/%d)", s.shortPeriod, s.longPeriod),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Left: "left"}),
	)

	line.SetXAxis(chartXAxis(df)).
		AddSeries("Price", chartLineData(df.Close)).
		AddSeries(fmt.Sprintf("%d-period MA", s.shortPeriod), chartLineData(df.Column(s.shortCol()))).
		AddSeries(fmt.Sprintf("%d-period MA", s.longPeriod), chartLineData(df.Column(s.longCol())))

	scatter := charts.NewScatter()
	scatter.SetXAxis(chartXAxis(df)).
		AddSeries("Golden Cross", chartMarkerData(df, ColGoldenCross)).
		AddSeries("Death Cross", chartMarkerData(df, ColDeathCross))
	line.Overlap(scatter)

	return line.Render(w)
}
