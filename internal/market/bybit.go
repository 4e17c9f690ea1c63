package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/models"
)

const defaultBaseURL = "https://api.bybit.com"

// BybitClient talks to the Bybit v5 public REST API for linear perpetuals.
type BybitClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewBybitClient creates a client with the given request timeout.
// An empty baseURL falls back to the production endpoint.
func NewBybitClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *BybitClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &BybitClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type bybitEnvelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

func (c *BybitClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope bybitEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if envelope.RetCode != 0 {
		return fmt.Errorf("api error %d: %s", envelope.RetCode, envelope.RetMsg)
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}
	return nil
}

// FetchTickers returns all linear-perpetual tickers.
func (c *BybitClient) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	params := url.Values{}
	params.Set("category", "linear")

	var result struct {
		List []struct {
			Symbol       string `json:"symbol"`
			LastPrice    string `json:"lastPrice"`
			Turnover24h  string `json:"turnover24h"`
			Price24hPcnt string `json:"price24hPcnt"`
		} `json:"list"`
	}
	if err := c.get(ctx, "/v5/market/tickers", params, &result); err != nil {
		return nil, err
	}

	tickers := make([]models.Ticker, 0, len(result.List))
	for _, row := range result.List {
		last, err := strconv.ParseFloat(row.LastPrice, 64)
		if err != nil {
			continue
		}
		turnover, _ := strconv.ParseFloat(row.Turnover24h, 64)
		changePcnt, _ := strconv.ParseFloat(row.Price24hPcnt, 64)
		tickers = append(tickers, models.Ticker{
			Symbol:           row.Symbol,
			LastPrice:        last,
			Turnover24h:      turnover,
			PriceChange24hPc: changePcnt * 100,
		})
	}
	return tickers, nil
}

// FetchKlines returns candles newest-first, dropping the still-forming bar.
func (c *BybitClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit+1))

	var result struct {
		List [][]string `json:"list"`
	}
	if err := c.get(ctx, "/v5/market/kline", params, &result); err != nil {
		return nil, err
	}

	// Bybit returns newest-first with the open bar at index 0.
	rows := result.List
	if len(rows) > 1 {
		rows = rows[1:]
	}

	candles := make(models.Candles, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("malformed kline row for %s: %d fields", symbol, len(row))
		}
		openTime, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline timestamp for %s: %w", symbol, err)
		}
		var vals [5]float64
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse kline field for %s: %w", symbol, err)
			}
			vals[i] = v
		}
		candles = append(candles, models.Candle{
			OpenTime: openTime,
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}
	if len(candles) > limit {
		candles = candles[:limit]
	}
	return candles, nil
}

// FetchOrderBook returns both sides of the book, best price first.
func (c *BybitClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(depth))

	var result struct {
		Bids [][]string `json:"b"`
		Asks [][]string `json:"a"`
	}
	if err := c.get(ctx, "/v5/market/orderbook", params, &result); err != nil {
		return nil, err
	}

	parseSide := func(rows [][]string) ([]models.BookLevel, error) {
		levels := make([]models.BookLevel, 0, len(rows))
		for _, row := range rows {
			if len(row) < 2 {
				return nil, fmt.Errorf("malformed book level for %s", symbol)
			}
			price, err := strconv.ParseFloat(row[0], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse book price for %s: %w", symbol, err)
			}
			size, err := strconv.ParseFloat(row[1], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse book size for %s: %w", symbol, err)
			}
			levels = append(levels, models.BookLevel{Price: price, Size: size})
		}
		return levels, nil
	}

	bids, err := parseSide(result.Bids)
	if err != nil {
		return nil, err
	}
	asks, err := parseSide(result.Asks)
	if err != nil {
		return nil, err
	}
	return &models.OrderBook{Symbol: symbol, Bids: bids, Asks: asks}, nil
}

// FetchRecentTrades returns the latest public trades.
func (c *BybitClient) FetchRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	var result struct {
		List []struct {
			Price string `json:"price"`
			Size  string `json:"size"`
			Side  string `json:"side"`
			Time  string `json:"time"`
		} `json:"list"`
	}
	if err := c.get(ctx, "/v5/market/recent-trade", params, &result); err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(result.List))
	for _, row := range result.List {
		price, err := strconv.ParseFloat(row.Price, 64)
		if err != nil {
			continue
		}
		size, _ := strconv.ParseFloat(row.Size, 64)
		ts, _ := strconv.ParseInt(row.Time, 10, 64)
		trades = append(trades, models.Trade{
			Price:     price,
			Size:      size,
			Side:      strings.ToLower(row.Side),
			Timestamp: ts,
		})
	}
	return trades, nil
}

// FetchOpenInterest returns an oldest-first open-interest history.
func (c *BybitClient) FetchOpenInterest(ctx context.Context, symbol string) ([]models.OpenInterestPoint, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)
	params.Set("intervalTime", "5min")
	params.Set("limit", "12")

	var result struct {
		List []struct {
			OpenInterest string `json:"openInterest"`
			Timestamp    string `json:"timestamp"`
		} `json:"list"`
	}
	if err := c.get(ctx, "/v5/market/open-interest", params, &result); err != nil {
		return nil, err
	}

	// Bybit returns newest-first; flip to oldest-first for trend math.
	points := make([]models.OpenInterestPoint, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		row := result.List[i]
		oi, err := strconv.ParseFloat(row.OpenInterest, 64)
		if err != nil {
			continue
		}
		ts, _ := strconv.ParseInt(row.Timestamp, 10, 64)
		points = append(points, models.OpenInterestPoint{Value: oi, Timestamp: ts})
	}
	return points, nil
}

// FetchFundingRate returns the current funding rate for the symbol.
func (c *BybitClient) FetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)

	var result struct {
		List []struct {
			FundingRate string `json:"fundingRate"`
		} `json:"list"`
	}
	if err := c.get(ctx, "/v5/market/tickers", params, &result); err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no ticker data for %s", symbol)
	}
	rate, err := strconv.ParseFloat(result.List[0].FundingRate, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse funding rate for %s: %w", symbol, err)
	}
	return rate, nil
}

// FetchLiquidations returns recent forced liquidations. Bybit exposes
// liquidations over websocket only, so the REST client reports none and
// downstream analysis falls back to its neutral status.
func (c *BybitClient) FetchLiquidations(ctx context.Context, symbol string) ([]models.Liquidation, error) {
	return nil, nil
}
