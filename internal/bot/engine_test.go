package bot

import (
	"errors"
	"io"
	"testing"
	"time"

	"multi-strategy-bot-go/internal/config"
	"multi-strategy-bot-go/internal/exchange"
	"multi-strategy-bot-go/internal/market"
	"multi-strategy-bot-go/internal/models"
	"multi-strategy-bot-go/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockRestClient is a mock implementation of the RestClientInterface.
type MockRestClient struct {
	mock.Mock
}

func (m *MockRestClient) GetServerTime() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRestClient) GetKlines(symbol, interval string, limit int) ([]market.Candle, error) {
	args := m.Called(symbol, interval, limit)
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *MockRestClient) GetFundingRates(symbols []string) (map[string]exchange.FundingRate, error) {
	args := m.Called(symbols)
	return args.Get(0).(map[string]exchange.FundingRate), args.Error(1)
}

// stubStrategy always reports a fixed action.
type stubStrategy struct {
	name   string
	action strategy.Action
	err    error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Calculate(df *market.Dataframe) (*market.Dataframe, error) {
	if s.err != nil {
		return nil, s.err
	}
	return df.Clone(), nil
}

func (s *stubStrategy) Signal(df *market.Dataframe) (strategy.Action, error) {
	return s.action, nil
}

func (s *stubStrategy) Plot(df *market.Dataframe, w io.Writer) error { return nil }

// setupTest creates a full test environment with a mock client and in-memory DB.
func setupTest(t *testing.T) (*gorm.DB, *MockRestClient) {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.Signal{}, &models.Trade{})
	assert.NoError(t, err)

	mockClient := new(MockRestClient)

	return db, mockClient
}

func testConfig() *config.Config {
	return &config.Config{
		Trading: config.Trading{
			Symbol:      "BTCUSDT",
			Interval:    "1h",
			CandleLimit: 100,
			Quantity:    0.001,
			DryRun:      true,
			SignalMode:  SignalModeMajority,
		},
	}
}

func testCandles(n int) []market.Candle {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = market.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 10,
		}
	}
	return candles
}

func TestEngine_FetchData(t *testing.T) {
	t.Run("DropsUnfinishedCandle", func(t *testing.T) {
		// Arrange
		db, mockClient := setupTest(t)
		engine := NewEngine(zap.NewNop(), testConfig(), mockClient, db, nil)

		mockClient.On("GetKlines", "BTCUSDT", "1h", 100).Return(testCandles(3), nil)

		// Act
		df, err := engine.FetchData()

		// Assert
		assert.NoError(t, err)
		// The most recent candle is still forming and must not be used.
		assert.Equal(t, 2, df.Len())
		mockClient.AssertExpectations(t)
	})

	t.Run("FetchError", func(t *testing.T) {
		db, mockClient := setupTest(t)
		engine := NewEngine(zap.NewNop(), testConfig(), mockClient, db, nil)

		mockClient.On("GetKlines", "BTCUSDT", "1h", 100).Return([]market.Candle{}, errors.New("API down"))

		df, err := engine.FetchData()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "API down")
		assert.Nil(t, df)
		mockClient.AssertExpectations(t)
	})
}

func TestEngine_RunStrategies(t *testing.T) {
	t.Run("PersistsSignals", func(t *testing.T) {
		// Arrange
		db, mockClient := setupTest(t)
		strategies := []strategy.Strategy{
			&stubStrategy{name: "AlwaysBuy", action: strategy.ActionBuy},
			&stubStrategy{name: "AlwaysHold", action: strategy.ActionHold},
		}
		engine := NewEngine(zap.NewNop(), testConfig(), mockClient, db, strategies)

		// Act
		results := engine.RunStrategies(market.NewDataframe("BTCUSDT", testCandles(5)))

		// Assert
		assert.Equal(t, strategy.ActionBuy, results["AlwaysBuy"])
		assert.Equal(t, strategy.ActionHold, results["AlwaysHold"])

		var saved []models.Signal
		assert.NoError(t, db.Find(&saved).Error)
		assert.Len(t, saved, 2)
	})

	t.Run("FailingStrategyIsSkipped", func(t *testing.T) {
		db, mockClient := setupTest(t)
		strategies := []strategy.Strategy{
			&stubStrategy{name: "Broken", err: errors.New("boom")},
			&stubStrategy{name: "AlwaysSell", action: strategy.ActionSell},
		}
		engine := NewEngine(zap.NewNop(), testConfig(), mockClient, db, strategies)

		results := engine.RunStrategies(market.NewDataframe("BTCUSDT", testCandles(5)))

		assert.NotContains(t, results, "Broken")
		assert.Equal(t, strategy.ActionSell, results["AlwaysSell"])
	})
}

func TestEngine_CombinedSignal(t *testing.T) {
	db, mockClient := setupTest(t)
	engine := NewEngine(zap.NewNop(), testConfig(), mockClient, db, nil)

	cases := []struct {
		name    string
		signals map[string]strategy.Action
		mode    string
		want    strategy.Action
	}{
		{"MajorityBuy", map[string]strategy.Action{"a": strategy.ActionBuy, "b": strategy.ActionBuy, "c": strategy.ActionHold}, SignalModeMajority, strategy.ActionBuy},
		{"MajoritySell", map[string]strategy.Action{"a": strategy.ActionSell, "b": strategy.ActionSell, "c": strategy.ActionBuy}, SignalModeMajority, strategy.ActionSell},
		{"MajorityTieHolds", map[string]strategy.Action{"a": strategy.ActionBuy, "b": strategy.ActionSell}, SignalModeMajority, strategy.ActionHold},
		{"ConsensusBuy", map[string]strategy.Action{"a": strategy.ActionBuy, "b": strategy.ActionBuy}, SignalModeConsensus, strategy.ActionBuy},
		{"ConsensusBrokenByHold", map[string]strategy.Action{"a": strategy.ActionBuy, "b": strategy.ActionHold}, SignalModeConsensus, strategy.ActionHold},
		{"AnyPrefersBuy", map[string]strategy.Action{"a": strategy.ActionBuy, "b": strategy.ActionSell, "c": strategy.ActionHold}, SignalModeAny, strategy.ActionBuy},
		{"AnySell", map[string]strategy.Action{"a": strategy.ActionSell, "b": strategy.ActionHold}, SignalModeAny, strategy.ActionSell},
		{"UnknownModeHolds", map[string]strategy.Action{"a": strategy.ActionBuy}, "weighted", strategy.ActionHold},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine.currentSignals = tc.signals
			assert.Equal(t, tc.want, engine.CombinedSignal(tc.mode))
		})
	}

	t.Run("NoSignalsHolds", func(t *testing.T) {
		engine.currentSignals = nil
		assert.Equal(t, strategy.ActionHold, engine.CombinedSignal(SignalModeMajority))
	})
}

func TestEngine_ExecuteOrder(t *testing.T) {
	db, mockClient := setupTest(t)
	engine := NewEngine(zap.NewNop(), testConfig(), mockClient, db, nil)

	// Buying while flat places an order and opens the position.
	assert.True(t, engine.ExecuteOrder("BTCUSDT", strategy.ActionBuy, 0.001, 100))

	// Buying again while already in position is ignored.
	assert.False(t, engine.ExecuteOrder("BTCUSDT", strategy.ActionBuy, 0.001, 101))

	// Holding never places an order.
	assert.False(t, engine.ExecuteOrder("BTCUSDT", strategy.ActionHold, 0.001, 101))

	// Selling while in position closes it.
	assert.True(t, engine.ExecuteOrder("BTCUSDT", strategy.ActionSell, 0.001, 102))

	// Selling while flat is ignored.
	assert.False(t, engine.ExecuteOrder("BTCUSDT", strategy.ActionSell, 0.001, 103))

	var trades []models.Trade
	assert.NoError(t, db.Find(&trades).Error)
	assert.Len(t, trades, 2)
	assert.Equal(t, "buy", trades[0].Side)
	assert.True(t, trades[0].IsSimulation)
	assert.Equal(t, "sell", trades[1].Side)
}
