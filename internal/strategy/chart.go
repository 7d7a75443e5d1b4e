package strategy

import (
	"math"

	"multi-strategy-bot-go/internal/market"

	"github.com/go-echarts/go-echarts/v2/opts"
)

// chartTimeLayout is the x-axis label format for all strategy charts.
const chartTimeLayout = "2006-01-02 15:04"

// chartXAxis formats the dataframe timestamps as x-axis labels.
func chartXAxis(df *market.Dataframe) []string {
	labels := make([]string, len(df.Time))
	for i, t := range df.Time {
		labels[i] = t.Format(chartTimeLayout)
	}
	return labels
}

// chartLineData converts a numeric column into line chart points. NaN values
// from indicator warm-up windows render as gaps.
func chartLineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// chartMarkerData builds scatter points at the close price for rows where
// the given boolean column is set, with gaps everywhere else.
func chartMarkerData(df *market.Dataframe, signal string) []opts.ScatterData {
	flags := df.Signal(signal)
	data := make([]opts.ScatterData, df.Len())
	for i := range data {
		if i < len(flags) && flags[i] {
			data[i] = opts.ScatterData{Value: df.Close[i], SymbolSize: 10}
			continue
		}
		data[i] = opts.ScatterData{Value: "-"}
	}
	return data
}
