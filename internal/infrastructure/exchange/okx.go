package exchange

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

	"github.com/vitos/perp_screener/internal/domain"
)

const (
	OKXBaseURL = "https://www.okx.com"
	OKXWSURL   = "wss://ws.okx.com:8443/ws/v5/public"

	okxSwapSuffix = "-USDT-SWAP"
)

// OKXAdapter reads public USDT swap market data from the OKX v5 REST API.
type OKXAdapter struct {
	baseURL string
	client  *http.Client
}

func NewOKXAdapter(baseURL string) *OKXAdapter {
	if baseURL == "" {
		baseURL = OKXBaseURL
	}
	return &OKXAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type okxEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (o *OKXAdapter) sendRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error: %s", string(body))
	}

	var env okxEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	if env.Code != "0" {
		return fmt.Errorf("okx api error %s: %s", env.Code, env.Msg)
	}
	return json.Unmarshal(env.Data, result)
}

// GetInstruments lists USDT-margined swaps. Symbols keep the OKX instId form (BTC-USDT-SWAP).
func (o *OKXAdapter) GetInstruments(ctx context.Context) ([]domain.Instrument, error) {
	var data []struct {
		InstID   string `json:"instId"`
		State    string `json:"state"`
		ListTime string `json:"listTime"`
	}
	if err := o.sendRequest(ctx, "/api/v5/public/instruments", url.Values{"instType": {"SWAP"}}, &data); err != nil {
		return nil, err
	}

	instruments := make([]domain.Instrument, 0, len(data))
	for _, item := range data {
		if !strings.HasSuffix(item.InstID, okxSwapSuffix) {
			continue
		}
		status := item.State
		if status == "live" {
			status = domain.InstrumentTrading
		}
		listTime, _ := strconv.ParseInt(item.ListTime, 10, 64)
		instruments = append(instruments, domain.Instrument{
			Symbol:     item.InstID,
			BaseCoin:   strings.TrimSuffix(item.InstID, okxSwapSuffix),
			QuoteCoin:  "USDT",
			Status:     status,
			LaunchTime: listTime,
		})
	}
	return instruments, nil
}

func (o *OKXAdapter) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	bar, err := lookupInterval(okxBars, tf)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	params := url.Values{
		"instId": {symbol},
		"bar":    {bar},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := o.sendRequest(ctx, "/api/v5/market/candles", params, &rows); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, raw := range rows {
		if c, ok := parseCandleRow(raw); ok {
			candles = append(candles, c)
		}
	}
	reverseCandles(candles)
	return candles, nil
}

func (o *OKXAdapter) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var data []struct {
		Last string `json:"last"`
	}
	if err := o.sendRequest(ctx, "/api/v5/market/ticker", url.Values{"instId": {symbol}}, &data); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("symbol %s not found: %w", symbol, domain.ErrPriceUnavailable)
	}
	return strconv.ParseFloat(data[0].Last, 64)
}
