package models

import "gorm.io/gorm"

// Signal represents a single strategy recommendation for a symbol.
type Signal struct {
	gorm.Model
	Strategy  string `json:"strategy"`
	Symbol    string `json:"symbol"`
	Action    string `json:"action"` // "buy", "sell" or "hold"
	Timestamp int64  `json:"timestamp"`
}
