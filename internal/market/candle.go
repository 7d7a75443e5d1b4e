package market

import "time"

// Candle represents a single OHLCV observation for a symbol.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
