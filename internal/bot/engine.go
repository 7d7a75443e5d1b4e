package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"multi-strategy-bot-go/internal/config"
	"multi-strategy-bot-go/internal/exchange"
	"multi-strategy-bot-go/internal/market"
	"multi-strategy-bot-go/internal/models"
	"multi-strategy-bot-go/internal/strategy"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Signal combination modes.
const (
	SignalModeMajority  = "majority"
	SignalModeConsensus = "consensus"
	SignalModeAny       = "any"
)

// Engine is the core bot engine: it periodically fetches market data, runs
// every configured strategy on its own copy of the data and acts on the
// combined signal.
type Engine struct {
	logger     *zap.Logger
	cfg        *config.Config
	client     exchange.RestClientInterface
	db         *gorm.DB
	strategies []strategy.Strategy

	inPosition     bool
	currentSignals map[string]strategy.Action
}

// NewEngine creates a new bot engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, client exchange.RestClientInterface, db *gorm.DB, strategies []strategy.Strategy) *Engine {
	return &Engine{
		logger:         logger,
		cfg:            cfg,
		client:         client,
		db:             db,
		strategies:     strategies,
		currentSignals: make(map[string]strategy.Action),
	}
}

// Run starts the engine's main loop.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.Trading.TickInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting strategy loop",
		zap.Duration("interval", interval),
		zap.Int("strategies", len(e.strategies)))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping bot engine...")
			return
		case <-ticker.C:
			if err := e.runCycle(); err != nil {
				e.logger.Error("Strategy cycle failed", zap.Error(err))
			}
		}
	}
}

// FetchData fetches market data from the exchange as a dataframe. The most
// recent candle is still forming and is dropped so strategies only ever see
// closed candles.
func (e *Engine) FetchData() (*market.Dataframe, error) {
	symbol := e.cfg.Trading.Symbol
	e.logger.Info("Fetching market data",
		zap.String("symbol", symbol),
		zap.String("interval", e.cfg.Trading.Interval))

	candles, err := e.client.GetKlines(symbol, e.cfg.Trading.Interval, e.cfg.Trading.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("could not fetch klines for %s: %w", symbol, err)
	}
	if len(candles) > 0 {
		candles = candles[:len(candles)-1]
	}

	return market.NewDataframe(symbol, candles), nil
}

// runCycle performs a single fetch-calculate-combine-execute round.
func (e *Engine) runCycle() error {
	df, err := e.FetchData()
	if err != nil {
		return err
	}
	if df.Len() == 0 {
		e.logger.Warn("No closed candles available, skipping cycle")
		return nil
	}

	e.RunStrategies(df)

	combined := e.CombinedSignal(e.cfg.Trading.SignalMode)
	e.logger.Info("Combined signal resolved",
		zap.String("mode", e.cfg.Trading.SignalMode),
		zap.String("signal", string(combined)))

	lastPrice := df.Close[df.Len()-1]
	e.ExecuteOrder(df.Symbol, combined, e.cfg.Trading.Quantity, lastPrice)
	return nil
}

// RunStrategies runs every strategy against its own copy of the dataframe,
// records the resulting signals and renders the per-strategy charts. A
// failing strategy is skipped, never fatal to the cycle.
func (e *Engine) RunStrategies(df *market.Dataframe) map[string]strategy.Action {
	results := make(map[string]strategy.Action, len(e.strategies))

	for _, st := range e.strategies {
		l := e.logger.With(zap.String("strategy", st.Name()))

		annotated, err := st.Calculate(df.Clone())
		if err != nil {
			l.Error("Strategy calculation failed", zap.Error(err))
			continue
		}

		action, err := st.Signal(annotated)
		if err != nil {
			l.Error("Strategy signal resolution failed", zap.Error(err))
			continue
		}

		l.Info("Strategy returned signal", zap.String("signal", string(action)))
		results[st.Name()] = action

		record := models.Signal{
			Strategy:  st.Name(),
			Symbol:    df.Symbol,
			Action:    string(action),
			Timestamp: time.Now().Unix(),
		}
		if err := e.db.Create(&record).Error; err != nil {
			l.Error("Failed to save signal record", zap.Error(err))
		}

		e.renderChart(st, annotated)
	}

	e.currentSignals = results
	return results
}

// renderChart writes the strategy's chart to the configured directory.
// Chart output is best effort and disabled with an empty directory.
func (e *Engine) renderChart(st strategy.Strategy, df *market.Dataframe) {
	if e.cfg.Charts.Dir == "" {
		return
	}

	name := strings.ToLower(strings.ReplaceAll(st.Name(), " ", "_")) + ".html"
	path := filepath.Join(e.cfg.Charts.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		e.logger.Error("Failed to create chart file", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	if err := st.Plot(df, f); err != nil {
		e.logger.Error("Failed to render chart", zap.String("strategy", st.Name()), zap.Error(err))
	}
}

// CombinedSignal combines the signals from the last strategy round.
//
// Modes: "majority" needs strictly more votes than each other action,
// "consensus" needs every strategy to agree, "any" acts on the first buy or
// sell present. An unknown mode resolves to hold.
func (e *Engine) CombinedSignal(mode string) strategy.Action {
	if len(e.currentSignals) == 0 {
		return strategy.ActionHold
	}

	var buys, sells, holds int
	for _, action := range e.currentSignals {
		switch action {
		case strategy.ActionBuy:
			buys++
		case strategy.ActionSell:
			sells++
		default:
			holds++
		}
	}

	switch mode {
	case SignalModeMajority:
		if buys > sells && buys > holds {
			return strategy.ActionBuy
		}
		if sells > buys && sells > holds {
			return strategy.ActionSell
		}
		return strategy.ActionHold

	case SignalModeConsensus:
		total := len(e.currentSignals)
		if buys == total {
			return strategy.ActionBuy
		}
		if sells == total {
			return strategy.ActionSell
		}
		return strategy.ActionHold

	case SignalModeAny:
		if buys > 0 {
			return strategy.ActionBuy
		}
		if sells > 0 {
			return strategy.ActionSell
		}
		return strategy.ActionHold

	default:
		e.logger.Warn("Unknown signal mode, holding", zap.String("mode", mode))
		return strategy.ActionHold
	}
}

// ExecuteOrder acts on a combined signal: buy only when flat, sell only when
// in position. Orders are recorded in the database; with dry_run enabled no
// real order is sent. It reports whether an order was placed.
func (e *Engine) ExecuteOrder(symbol string, action strategy.Action, quantity, price float64) bool {
	l := e.logger.With(
		zap.String("symbol", symbol),
		zap.String("signal", string(action)),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price))

	switch {
	case action == strategy.ActionBuy && !e.inPosition:
		l.Info("Executing BUY order")
	case action == strategy.ActionSell && e.inPosition:
		l.Info("Executing SELL order")
	default:
		return false
	}

	if !e.cfg.Trading.DryRun {
		// Live order placement is deliberately not implemented; the engine
		// always records the trade and flips its position state.
		l.Warn("Live trading is not supported, recording trade only")
	}

	trade := models.Trade{
		Symbol:       symbol,
		Side:         string(action),
		Price:        price,
		Quantity:     quantity,
		Timestamp:    time.Now().Unix(),
		IsSimulation: true,
	}
	if err := e.db.Create(&trade).Error; err != nil {
		l.Error("Failed to save trade record", zap.Error(err))
		return false
	}

	e.inPosition = action == strategy.ActionBuy
	l.Info("Order recorded", zap.Uint("trade_id", trade.ID))
	return true
}

// CurrentSignals returns the per-strategy signals from the last round.
func (e *Engine) CurrentSignals() map[string]strategy.Action {
	return e.currentSignals
}
