package exchange

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"multi-strategy-bot-go/internal/config"
	"multi-strategy-bot-go/internal/market"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	spotBaseURL           = "https://api.binance.com/api/v3"
	spotTestnetBaseURL    = "https://testnet.binance.vision/api/v3"
	futuresBaseURL        = "https://fapi.binance.com/fapi/v1"
	futuresTestnetBaseURL = "https://testnet.binancefuture.com/fapi/v1"
)

// FundingRate is the current funding state of a perpetual contract.
type FundingRate struct {
	Symbol          string
	Rate            float64
	NextFundingTime time.Time
}

// RestClientInterface defines the interface for the exchange REST API client.
type RestClientInterface interface {
	GetServerTime() (int64, error)
	GetKlines(symbol, interval string, limit int) ([]market.Candle, error)
	GetFundingRates(symbols []string) (map[string]FundingRate, error)
}

// RestClient is a client for the exchange REST API.
// It implements the RestClientInterface.
type RestClient struct {
	spot    *resty.Client
	futures *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new exchange REST API client.
func NewRestClient(cfg *config.Exchange, logger *zap.Logger) *RestClient {
	spotURL, futuresURL := spotBaseURL, futuresBaseURL
	if cfg.Testnet {
		spotURL, futuresURL = spotTestnetBaseURL, futuresTestnetBaseURL
		logger.Warn("Using exchange testnet")
	} else {
		logger.Info("Using exchange production API")
	}

	spot := resty.New().SetBaseURL(spotURL)
	futures := resty.New().SetBaseURL(futuresURL)
	if cfg.ApiKey != "" {
		spot.SetHeader("X-MBX-APIKEY", cfg.ApiKey)
		futures.SetHeader("X-MBX-APIKEY", cfg.ApiKey)
	}

	// Initialize the rate limiter
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		spot:    spot,
		futures: futures,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == 418 { // HTTP 429 or 418
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetServerTime fetches the current server time from the exchange.
// This is a good endpoint to test connectivity.
func (c *RestClient) GetServerTime() (int64, error) {
	type ServerTimeResponse struct {
		ServerTime int64 `json:"serverTime"`
	}

	req := c.spot.R().
		SetResult(&ServerTimeResponse{})
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/time", req)
	if err != nil {
		c.logger.Error("Failed to get server time", zap.Error(err))
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}

	result := resp.Result().(*ServerTimeResponse)
	return result.ServerTime, nil
}

// GetKlines fetches up to limit OHLCV candles for a symbol and interval,
// oldest first. The exchange encodes each kline as a JSON array of mixed
// number and string fields.
func (c *RestClient) GetKlines(symbol, interval string, limit int) ([]market.Candle, error) {
	var raw [][]interface{}

	req := c.spot.R().
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		SetResult(&raw).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/klines", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines for %s: %w", symbol, err)
	}

	result := resp.Result().(*[][]interface{})
	candles := make([]market.Candle, 0, len(*result))
	for _, k := range *result {
		candle, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline for %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseKline converts a single kline array into a Candle.
// Layout: [openTime, open, high, low, close, volume, closeTime, ...].
func parseKline(k []interface{}) (market.Candle, error) {
	if len(k) < 6 {
		return market.Candle{}, fmt.Errorf("kline has %d fields, expected at least 6", len(k))
	}

	openTime, ok := k[0].(float64)
	if !ok {
		return market.Candle{}, fmt.Errorf("kline open time is not a number: %v", k[0])
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return market.Candle{}, fmt.Errorf("kline field %d is not a string: %v", i, k[i])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("failed to parse kline field %d: %w", i, err)
		}
		values[i-1] = v
	}

	return market.Candle{
		Time:   time.UnixMilli(int64(openTime)),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

// premiumIndexResponse represents a single entry of the premium index
// endpoint, which carries the live funding rate for a perpetual contract.
type premiumIndexResponse struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

// GetFundingRates fetches the current funding rates for the given perpetual
// symbols from the futures API.
func (c *RestClient) GetFundingRates(symbols []string) (map[string]FundingRate, error) {
	var entries []premiumIndexResponse

	req := c.futures.R().
		SetResult(&entries).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/premiumIndex", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get funding rates: %w", err)
	}

	result := resp.Result().(*[]premiumIndexResponse)
	wanted := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		wanted[s] = struct{}{}
	}

	rates := make(map[string]FundingRate, len(symbols))
	for _, entry := range *result {
		if _, ok := wanted[entry.Symbol]; !ok {
			continue
		}
		rate, err := strconv.ParseFloat(entry.LastFundingRate, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse funding rate for %s: %w", entry.Symbol, err)
		}
		rates[entry.Symbol] = FundingRate{
			Symbol:          entry.Symbol,
			Rate:            rate,
			NextFundingTime: time.UnixMilli(entry.NextFundingTime),
		}
	}

	return rates, nil
}
