package strategy

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"multi-strategy-bot-go/internal/exchange"
	"multi-strategy-bot-go/internal/market"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

// Column names added by the funding-rate strategy.
const (
	ColFundingRate  = "funding_rate"
	ColFrBuySignal  = "fr_buy_signal"
	ColFrSellSignal = "fr_sell_signal"
)

// fundingRateStdDev is the standard deviation of the simulated funding-rate
// distribution used by Calculate.
const fundingRateStdDev = 0.0005

// FundingRateProvider is the optional exchange capability to fetch live
// funding rates for perpetual contracts.
type FundingRateProvider interface {
	GetFundingRates(symbols []string) (map[string]exchange.FundingRate, error)
}

// FundingRateStrategy trades against crowded positioning: a strongly negative
// funding rate (shorts paying longs) is a buy signal, a strongly positive one
// a sell signal.
type FundingRateStrategy struct {
	threshold float64
	logger    *zap.Logger
	rng       *rand.Rand
}

// NewFundingRateStrategy creates a funding-rate strategy. The threshold is
// the absolute funding-rate magnitude that triggers a signal and must be
// positive; with a non-positive threshold the buy and sell conditions are no
// longer mutually exclusive.
func NewFundingRateStrategy(threshold float64, logger *zap.Logger) *FundingRateStrategy {
	return &FundingRateStrategy{
		threshold: threshold,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns the unique name of the strategy.
func (s *FundingRateStrategy) Name() string {
	return "Funding Rate"
}

// FetchFundingRate retrieves the current funding rate for symbol from the
// given exchange. The exchange is accepted as any value: one that does not
// expose the funding-rate capability is tolerated. The second return value
// reports whether a rate was available; failures are logged and never
// propagated.
func (s *FundingRateStrategy) FetchFundingRate(ex any, symbol string) (float64, bool) {
	provider, ok := ex.(FundingRateProvider)
	if !ok {
		return 0, false
	}

	rates, err := provider.GetFundingRates([]string{symbol})
	if err != nil {
		s.logger.Error("Error fetching funding rates", zap.Error(err))
		return 0, false
	}

	rate, ok := rates[symbol]
	if !ok {
		return 0, false
	}
	return rate.Rate, true
}

// Calculate annotates a copy of the dataframe with a funding_rate column and
// the two signal columns. The funding rate is simulated by sampling
// N(0, 0.0005) per row.
//
// TODO: replace the simulation with per-candle rates from FetchFundingRate
// once historical funding data is collected alongside the klines.
func (s *FundingRateStrategy) Calculate(df *market.Dataframe) (*market.Dataframe, error) {
	out := df.Clone()
	n := out.Len()

	rates := make([]float64, n)
	for i := range rates {
		rates[i] = s.rng.NormFloat64() * fundingRateStdDev
	}
	buySignals, sellSignals := fundingSignals(rates, s.threshold)

	out.SetColumn(ColFundingRate, rates)
	out.SetSignal(ColFrBuySignal, buySignals)
	out.SetSignal(ColFrSellSignal, sellSignals)

	return out, nil
}

// fundingSignals derives the buy and sell columns from a funding-rate series.
// Strict inequalities: a rate exactly at the threshold triggers neither side.
func fundingSignals(rates []float64, threshold float64) (buys, sells []bool) {
	buys = make([]bool, len(rates))
	sells = make([]bool, len(rates))
	for i, rate := range rates {
		buys[i] = rate < -threshold
		sells[i] = rate > threshold
	}
	return buys, sells
}

// Signal resolves the action from the most recent row. The buy condition is
// checked before the sell condition, so the result stays deterministic even
// if a misconfigured threshold makes the two conditions overlap.
func (s *FundingRateStrategy) Signal(df *market.Dataframe) (Action, error) {
	buy, err := df.LastSignal(ColFrBuySignal)
	if err != nil {
		return "", fmt.Errorf("funding rate signal: %w", err)
	}
	if buy {
		return ActionBuy, nil
	}

	sell, err := df.LastSignal(ColFrSellSignal)
	if err != nil {
		return "", fmt.Errorf("funding rate signal: %w", err)
	}
	if sell {
		return ActionSell, nil
	}

	return ActionHold, nil
}

// Plot renders the price on the primary axis and the funding rate on a
// secondary axis, with reference lines at both thresholds and shaded bands
// beyond them.
func (s *FundingRateStrategy) Plot(df *market.Dataframe, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Funding Rate Analysis"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Left: "left"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Funding Rate", Type: "value"})

	rateBand := 4 * fundingRateStdDev
	line.SetXAxis(chartXAxis(df)).
		AddSeries("Price", chartLineData(df.Close)).
		AddSeries("Funding Rate", chartLineData(df.Column(ColFundingRate)),
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "Sell Threshold", YAxis: s.threshold},
				opts.MarkLineNameYAxisItem{Name: "Buy Threshold", YAxis: -s.threshold},
			),
			charts.WithMarkAreaNameYAxisItemOpts(
				opts.MarkAreaNameYAxisItem{Name: "Overheated Longs", YAxis: s.threshold},
				opts.MarkAreaNameYAxisItem{YAxis: rateBand},
			),
			charts.WithMarkAreaNameYAxisItemOpts(
				opts.MarkAreaNameYAxisItem{Name: "Overheated Shorts", YAxis: -rateBand},
				opts.MarkAreaNameYAxisItem{YAxis: -s.threshold},
			),
		)

	return line.Render(w)
}
