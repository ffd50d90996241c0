package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stockchat/config"
	"stockchat/metrics"
)

const (
	defaultYahooURL = "https://query1.finance.yahoo.com"
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64) stockchat"
)

// YahooClient reads the Yahoo Finance v8 chart endpoint.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type YahooOption func(*YahooClient)

func WithBaseURL(u string) YahooOption {
	return func(c *YahooClient) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) YahooOption {
	return func(c *YahooClient) { c.httpClient = hc }
}

func WithMetrics(m *metrics.Metrics) YahooOption {
	return func(c *YahooClient) { c.metrics = m }
}

func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL:    defaultYahooURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		ExchangeTimezone   string  `json:"exchangeTimezoneName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *YahooClient) History(ctx context.Context, ticker, period string) ([]Bar, error) {
	res, err := c.chart(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	bars := parseBars(res)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}
	return bars, nil
}

// Info derives the dividend yield from the trailing twelve months of
// dividend events divided by the latest close.
func (c *YahooClient) Info(ctx context.Context, ticker string) (Info, error) {
	res, err := c.chart(ctx, ticker, "1y")
	if err != nil {
		return Info{}, err
	}

	info := Info{Symbol: res.Meta.Symbol, Currency: res.Meta.Currency}
	bars := parseBars(res)
	if len(bars) == 0 {
		return info, nil
	}

	last := bars[len(bars)-1]
	cutoff := last.Date.AddDate(-1, 0, 0)
	var total float64
	for _, d := range res.Events.Dividends {
		if time.Unix(d.Date, 0).After(cutoff) {
			total += d.Amount
		}
	}
	if total > 0 && last.Close > 0 {
		y := total / last.Close
		info.DividendYield = &y
	}
	return info, nil
}

func (c *YahooClient) chart(ctx context.Context, ticker, period string) (*chartResult, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", "1d")
	q.Set("events", "div")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Market] GET %s", endpoint)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveFetchDuration(start)
	if err != nil {
		c.metrics.ObserveFetch("yahoo", "error")
		return nil, fmt.Errorf("failed to fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		c.metrics.ObserveFetch("yahoo", "error")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.metrics.ObserveFetch("yahoo", "error")
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("market data request failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		c.metrics.ObserveFetch("yahoo", "error")
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Market] %s: %s %s", symbol, parsed.Chart.Error.Code, parsed.Chart.Error.Description)
		}
		if resp.StatusCode == http.StatusNotFound || parsed.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s: %s", ErrNoData, symbol, parsed.Chart.Error.Description)
		}
		return nil, fmt.Errorf("market data error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveFetch("yahoo", "error")
		return nil, fmt.Errorf("market data request failed: %s", resp.Status)
	}
	if len(parsed.Chart.Result) == 0 {
		c.metrics.ObserveFetch("yahoo", "error")
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	c.metrics.ObserveFetch("yahoo", "ok")
	return &parsed.Chart.Result[0], nil
}

// parseBars zips the timestamp and quote columns, dropping days without a close.
func parseBars(res *chartResult) []Bar {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]

	loc := time.UTC
	if res.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(res.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).In(loc),
			Close: *cl,
		}
		if v := at(q.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(q.High, i); v != nil {
			bar.High = *v
		}
		if v := at(q.Low, i); v != nil {
			bar.Low = *v
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(col []*float64, i int) *float64 {
	if i >= len(col) {
		return nil
	}
	return col[i]
}
