package strategy

import (
	"fmt"
	"io"

	"multi-strategy-bot-go/internal/config"
	"multi-strategy-bot-go/internal/market"

	"go.uber.org/zap"
)

// Action is a strategy's recommended action for the most recent observation.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Strategy defines the interface for a trading strategy.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Calculate derives the strategy's indicator and signal columns on a
	// copy of the given dataframe. The input is never mutated.
	Calculate(df *market.Dataframe) (*market.Dataframe, error)

	// Signal resolves the trading action from the most recent row of a
	// calculated dataframe.
	Signal(df *market.Dataframe) (Action, error)

	// Plot renders a diagnostic chart of the calculated dataframe to w.
	Plot(df *market.Dataframe, w io.Writer) error
}

// FromConfig builds the set of enabled strategies from the configuration.
func FromConfig(cfg *config.Config, logger *zap.Logger) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(cfg.Trading.Strategies))
	for _, name := range cfg.Trading.Strategies {
		switch name {
		case "funding_rate":
			strategies = append(strategies, NewFundingRateStrategy(cfg.Strategies.FundingRate.Threshold, logger))
		case "supertrend":
			strategies = append(strategies, NewSupertrendStrategy(cfg.Strategies.Supertrend.Period, cfg.Strategies.Supertrend.Multiplier))
		case "golden_cross":
			strategies = append(strategies, NewGoldenCrossStrategy(cfg.Strategies.GoldenCross.ShortPeriod, cfg.Strategies.GoldenCross.LongPeriod))
		case "bollinger_bands":
			strategies = append(strategies, NewBollingerBandsStrategy(cfg.Strategies.BollingerBands.Period, cfg.Strategies.BollingerBands.NumStd))
		default:
			return nil, fmt.Errorf("unknown strategy: %s", name)
		}
	}
	return strategies, nil
}
