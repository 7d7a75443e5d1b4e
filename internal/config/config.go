package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Exchange   Exchange   `mapstructure:"exchange"`
	Trading    Trading    `mapstructure:"trading"`
	Strategies Strategies `mapstructure:"strategies"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Charts     Charts     `mapstructure:"charts"`
}

// Exchange holds the configuration for the exchange REST API.
type Exchange struct {
	ApiKey         string  `mapstructure:"apiKey"`
	SecretKey      string  `mapstructure:"secretKey"`
	Testnet        bool    `mapstructure:"testnet"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the trading loop.
type Trading struct {
	Symbol       string   `mapstructure:"symbol"`
	Interval     string   `mapstructure:"interval"`
	CandleLimit  int      `mapstructure:"candle_limit"`
	Quantity     float64  `mapstructure:"quantity"`
	TickInterval int      `mapstructure:"tick_interval"`
	DryRun       bool     `mapstructure:"dry_run"`
	SignalMode   string   `mapstructure:"signal_mode"`
	Strategies   []string `mapstructure:"strategies"`
}

// Strategies holds the per-strategy parameters.
type Strategies struct {
	FundingRate    FundingRateParams    `mapstructure:"funding_rate"`
	Supertrend     SupertrendParams     `mapstructure:"supertrend"`
	GoldenCross    GoldenCrossParams    `mapstructure:"golden_cross"`
	BollingerBands BollingerBandsParams `mapstructure:"bollinger_bands"`
}

// FundingRateParams configures the funding-rate strategy.
type FundingRateParams struct {
	Threshold float64 `mapstructure:"threshold"`
}

// SupertrendParams configures the Supertrend strategy.
type SupertrendParams struct {
	Period     int     `mapstructure:"period"`
	Multiplier float64 `mapstructure:"multiplier"`
}

// GoldenCrossParams configures the moving-average crossover strategy.
type GoldenCrossParams struct {
	ShortPeriod int `mapstructure:"short_period"`
	LongPeriod  int `mapstructure:"long_period"`
}

// BollingerBandsParams configures the Bollinger Bands strategy.
type BollingerBandsParams struct {
	Period int     `mapstructure:"period"`
	NumStd float64 `mapstructure:"num_std"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Charts holds the configuration for chart output.
type Charts struct {
	Dir string `mapstructure:"dir"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("exchange.rate_limit", 20)      // requests per second
	viper.SetDefault("exchange.rate_limit_burst", 5) // burst size
	viper.SetDefault("trading.candle_limit", 100)
	viper.SetDefault("trading.signal_mode", "majority")
	viper.SetDefault("strategies.funding_rate.threshold", 0.001)
	viper.SetDefault("strategies.supertrend.period", 10)
	viper.SetDefault("strategies.supertrend.multiplier", 3)
	viper.SetDefault("strategies.golden_cross.short_period", 50)
	viper.SetDefault("strategies.golden_cross.long_period", 200)
	viper.SetDefault("strategies.bollinger_bands.period", 20)
	viper.SetDefault("strategies.bollinger_bands.num_std", 2)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
