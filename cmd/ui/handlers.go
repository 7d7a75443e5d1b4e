package main

import (
	"encoding/json"
	"net/http"
	"time"

	"multi-strategy-bot-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// SignalsHandler returns the most recent strategy signals.
func (h *APIHandler) SignalsHandler(w http.ResponseWriter, r *http.Request) {
	var signals []models.Signal
	// Order by most recent first
	if err := h.db.Order("timestamp desc").Limit(200).Find(&signals).Error; err != nil {
		h.log.Error("Failed to get signals from database", zap.Error(err))
		http.Error(w, "Failed to get signals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signals)
}

// TradesHandler returns all historical trades.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	var trades []models.Trade
	// Order by most recent first
	if err := h.db.Order("timestamp desc").Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalSignals int64 `json:"total_signals"`
	BuySignals   int64 `json:"buy_signals"`
	SellSignals  int64 `json:"sell_signals"`
	HoldSignals  int64 `json:"hold_signals"`
	TotalTrades  int64 `json:"total_trades"`
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// StatisticsHandler calculates and returns signal and trade statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	var signals []models.Signal
	if err := h.db.Find(&signals).Error; err != nil {
		h.log.Error("Failed to get signals for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	var trades []models.Trade
	if err := h.db.Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	since24h := now.Add(-24 * time.Hour).Unix()

	stats24h := StatsDetail{}
	statsAllTime := StatsDetail{}

	count := func(stats *StatsDetail, action string) {
		stats.TotalSignals++
		switch action {
		case "buy":
			stats.BuySignals++
		case "sell":
			stats.SellSignals++
		default:
			stats.HoldSignals++
		}
	}

	for _, signal := range signals {
		count(&statsAllTime, signal.Action)
		if signal.Timestamp >= since24h {
			count(&stats24h, signal.Action)
		}
	}

	for _, trade := range trades {
		statsAllTime.TotalTrades++
		if trade.Timestamp >= since24h {
			stats24h.TotalTrades++
		}
	}

	response := StatisticsResponse{
		Since24h: stats24h,
		AllTime:  statsAllTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
