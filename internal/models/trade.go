package models

import "gorm.io/gorm"

// Trade represents an executed (or simulated) order record.
type Trade struct {
	gorm.Model
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"` // "buy" or "sell"
	Price        float64 `json:"price"`
	Quantity     float64 `json:"quantity"`
	Timestamp    int64   `json:"timestamp"`
	IsSimulation bool    `json:"is_simulation"`
	Profit       float64 `json:"profit,omitempty"`
}
