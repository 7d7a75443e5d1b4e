package market

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmpty is returned when an operation needs at least one row.
var ErrEmpty = errors.New("dataframe has no rows")

// Dataframe is a column-oriented view of market data, in ascending time
// order. Strategies attach derived numeric columns via Metadata and derived
// boolean columns via Signals.
type Dataframe struct {
	Symbol string

	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	Metadata map[string][]float64
	Signals  map[string][]bool
}

// NewDataframe builds a Dataframe from a candle slice. The candles are
// assumed to already be in ascending time order; insertion order is kept.
func NewDataframe(symbol string, candles []Candle) *Dataframe {
	df := &Dataframe{
		Symbol:   symbol,
		Time:     make([]time.Time, len(candles)),
		Open:     make([]float64, len(candles)),
		High:     make([]float64, len(candles)),
		Low:      make([]float64, len(candles)),
		Close:    make([]float64, len(candles)),
		Volume:   make([]float64, len(candles)),
		Metadata: make(map[string][]float64),
		Signals:  make(map[string][]bool),
	}
	for i, c := range candles {
		df.Time[i] = c.Time
		df.Open[i] = c.Open
		df.High[i] = c.High
		df.Low[i] = c.Low
		df.Close[i] = c.Close
		df.Volume[i] = c.Volume
	}
	return df
}

// Len returns the number of rows.
func (df *Dataframe) Len() int {
	return len(df.Close)
}

// Clone returns a deep copy. Strategies annotate the copy so the caller's
// frame is never mutated.
func (df *Dataframe) Clone() *Dataframe {
	out := &Dataframe{
		Symbol:   df.Symbol,
		Time:     append([]time.Time(nil), df.Time...),
		Open:     append([]float64(nil), df.Open...),
		High:     append([]float64(nil), df.High...),
		Low:      append([]float64(nil), df.Low...),
		Close:    append([]float64(nil), df.Close...),
		Volume:   append([]float64(nil), df.Volume...),
		Metadata: make(map[string][]float64, len(df.Metadata)),
		Signals:  make(map[string][]bool, len(df.Signals)),
	}
	for name, col := range df.Metadata {
		out.Metadata[name] = append([]float64(nil), col...)
	}
	for name, col := range df.Signals {
		out.Signals[name] = append([]bool(nil), col...)
	}
	return out
}

// SetColumn attaches a derived numeric column. The column must have one value
// per row.
func (df *Dataframe) SetColumn(name string, values []float64) {
	if df.Metadata == nil {
		df.Metadata = make(map[string][]float64)
	}
	df.Metadata[name] = values
}

// SetSignal attaches a derived boolean column.
func (df *Dataframe) SetSignal(name string, values []bool) {
	if df.Signals == nil {
		df.Signals = make(map[string][]bool)
	}
	df.Signals[name] = values
}

// Column returns a derived numeric column, or nil if it was never set.
func (df *Dataframe) Column(name string) []float64 {
	return df.Metadata[name]
}

// Signal returns a derived boolean column, or nil if it was never set.
func (df *Dataframe) Signal(name string) []bool {
	return df.Signals[name]
}

// Last returns the most recent value of a derived numeric column.
func (df *Dataframe) Last(name string) (float64, error) {
	col, ok := df.Metadata[name]
	if !ok {
		return 0, fmt.Errorf("column %q not found", name)
	}
	if len(col) == 0 {
		return 0, ErrEmpty
	}
	return col[len(col)-1], nil
}

// LastSignal returns the most recent value of a derived boolean column.
func (df *Dataframe) LastSignal(name string) (bool, error) {
	col, ok := df.Signals[name]
	if !ok {
		return false, fmt.Errorf("signal column %q not found", name)
	}
	if len(col) == 0 {
		return false, ErrEmpty
	}
	return col[len(col)-1], nil
}
