package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitos/perp_screener/internal/domain"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/linear"
)

// BybitAdapter reads public linear-perpetual market data from the Bybit v5 REST API.
type BybitAdapter struct {
	baseURL string
	client  *http.Client
}

func NewBybitAdapter(baseURL string) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	return &BybitAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// --- REST API ---

type bybitEnvelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

func (b *BybitAdapter) sendRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error: %s", string(respBody))
	}

	var env bybitEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return err
	}
	if env.RetCode != 0 {
		return fmt.Errorf("bybit api error %d: %s", env.RetCode, env.RetMsg)
	}
	return json.Unmarshal(env.Result, result)
}

func (b *BybitAdapter) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	params := url.Values{"category": {"linear"}, "symbol": {symbol}}
	if err := b.sendRequest(ctx, "/v5/market/tickers", params, &result); err != nil {
		return 0, err
	}

	if len(result.List) == 0 {
		return 0, fmt.Errorf("symbol %s not found: %w", symbol, domain.ErrPriceUnavailable)
	}

	return strconv.ParseFloat(result.List[0].LastPrice, 64)
}

func (b *BybitAdapter) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	interval, err := lookupInterval(bybitIntervals, tf)
	if err != nil {
		return nil, err
	}

	var result struct {
		List [][]string `json:"list"`
	}
	params := url.Values{
		"category": {"linear"},
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	if err := b.sendRequest(ctx, "/v5/market/kline", params, &result); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(result.List))
	for _, raw := range result.List {
		// Format: [startTime, open, high, low, close, volume, turnover]
		if c, ok := parseCandleRow(raw); ok {
			candles = append(candles, c)
		}
	}

	// Bybit returns candles newest first
	reverseCandles(candles)
	return candles, nil
}

// GetInstruments pages through the linear instruments and keeps perpetuals.
func (b *BybitAdapter) GetInstruments(ctx context.Context) ([]domain.Instrument, error) {
	var instruments []domain.Instrument
	cursor := ""
	for {
		params := url.Values{"category": {"linear"}, "limit": {"1000"}}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var result struct {
			NextPageCursor string `json:"nextPageCursor"`
			List           []struct {
				Symbol       string `json:"symbol"`
				ContractType string `json:"contractType"`
				BaseCoin     string `json:"baseCoin"`
				QuoteCoin    string `json:"quoteCoin"`
				Status       string `json:"status"`
				LaunchTime   string `json:"launchTime"`
			} `json:"list"`
		}
		if err := b.sendRequest(ctx, "/v5/market/instruments-info", params, &result); err != nil {
			return nil, err
		}

		for _, item := range result.List {
			if item.ContractType != "LinearPerpetual" {
				continue
			}
			launchTime, _ := strconv.ParseInt(item.LaunchTime, 10, 64)
			status := item.Status
			if status == "Trading" {
				status = domain.InstrumentTrading
			}
			instruments = append(instruments, domain.Instrument{
				Symbol:     item.Symbol,
				BaseCoin:   item.BaseCoin,
				QuoteCoin:  item.QuoteCoin,
				Status:     status,
				LaunchTime: launchTime,
			})
		}

		if result.NextPageCursor == "" || result.NextPageCursor == cursor || len(result.List) == 0 {
			break
		}
		cursor = result.NextPageCursor
	}
	return instruments, nil
}

// parseCandleRow reads [ts, open, high, low, close, volume, ...] string rows
// shared by the Bybit and OKX candle endpoints.
func parseCandleRow(raw []string) (domain.Candle, bool) {
	if len(raw) < 6 {
		return domain.Candle{}, false
	}
	ts, err := strconv.ParseInt(raw[0], 10, 64)
	if err != nil {
		return domain.Candle{}, false
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(raw[i+1], 64)
		if err != nil {
			return domain.Candle{}, false
		}
		vals[i] = v
	}
	return domain.Candle{
		Time:   ts / 1000,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true
}
