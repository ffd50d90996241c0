// Package functions registers the stock-analysis functions the chat model
// can call.
package functions

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"stockchat/chart"
	"stockchat/indicator"
	"stockchat/market"
	"stockchat/registry"
)

const (
	tickerDescription = "The stock ticker symbol for a company (example: AAPL is for Apple)."

	StockChartFile          = "stock.png"
	MovingAveragesChartFile = "moving_averages.png"

	NoDividendYield = "No dividend yield information available."
)

// Options configures the function set.
type Options struct {
	Source market.Source

	// Period is the history lookback passed to the source. Defaults to "1y".
	Period string

	// ArtifactPath resolves a chart file name to where it is written.
	// Defaults to the name itself, relative to the working directory.
	ArtifactPath func(name string) string
}

type tickerArgs struct {
	Ticker string `json:"ticker"`
}

type windowArgs struct {
	Ticker string `json:"ticker"`
	Window int    `json:"window"`
}

type service struct {
	src    market.Source
	period string
}

// Register adds every function to r in a fixed order.
func Register(r *registry.Registry, opts Options) error {
	if opts.Source == nil {
		return fmt.Errorf("functions: market source is required")
	}
	if opts.Period == "" {
		opts.Period = "1y"
	}
	if opts.ArtifactPath == nil {
		opts.ArtifactPath = func(name string) string { return name }
	}

	s := &service{src: opts.Source, period: opts.Period}
	stockPath := opts.ArtifactPath(StockChartFile)
	maPath := opts.ArtifactPath(MovingAveragesChartFile)

	tickerParam := registry.Param{
		Name:        "ticker",
		Type:        registry.TypeString,
		Description: tickerDescription,
		Required:    true,
	}
	windowParam := func(what string) registry.Param {
		return registry.Param{
			Name:        "window",
			Type:        registry.TypeInteger,
			Description: "The timeframe to consider when calculating the " + what,
			Required:    true,
		}
	}

	entries := []struct {
		spec    registry.FunctionSpec
		handler registry.Handler
	}{
		{
			registry.FunctionSpec{
				Name:        "get_stock_price",
				Description: "Gets the latest stock price given the ticker symbol of a company.",
				Params:      []registry.Param{tickerParam},
			},
			registry.Bind(s.stockPrice),
		},
		{
			registry.FunctionSpec{
				Name:        "calculate_SMA",
				Description: "Calculate the simple moving average for a given stock ticker and a window.",
				Params:      []registry.Param{tickerParam, windowParam("SMA")},
			},
			registry.Bind(s.sma),
		},
		{
			registry.FunctionSpec{
				Name:        "calculate_EMA",
				Description: "Calculate the exponential moving average for a given stock ticker and a window.",
				Params:      []registry.Param{tickerParam, windowParam("EMA")},
			},
			registry.Bind(s.ema),
		},
		{
			registry.FunctionSpec{
				Name:        "calculate_RSI",
				Description: "Calculate the RSI for a given ticker symbol of a company.",
				Params:      []registry.Param{tickerParam},
			},
			registry.Bind(s.rsi),
		},
		{
			registry.FunctionSpec{
				Name:        "calculate_MACD",
				Description: "Calculate the MACD for a given stock ticker.",
				Params:      []registry.Param{tickerParam},
			},
			registry.Bind(s.macd),
		},
		{
			registry.FunctionSpec{
				Name:        "get_dividend_yield",
				Description: "Calculates and returns the dividend yield of a stock for a given stock ticker.",
				Params:      []registry.Param{tickerParam},
			},
			registry.Bind(s.dividendYield),
		},
		{
			registry.FunctionSpec{
				Name:         "plot_moving_averages",
				Description:  "Generates a plot of the stocks price along with its SMA over two different windows for a given stock ticker.",
				Category:     registry.ArtifactProducing,
				Params:       []registry.Param{tickerParam},
				ArtifactPath: maPath,
			},
			registry.Bind(s.plotMovingAverages(maPath)),
		},
		{
			registry.FunctionSpec{
				Name:         "plot_stock_price",
				Description:  "Plot the stock price for the last year given the ticker symbol of a company.",
				Category:     registry.ArtifactProducing,
				Params:       []registry.Param{tickerParam},
				ArtifactPath: stockPath,
			},
			registry.Bind(s.plotStockPrice(stockPath)),
		},
	}

	for _, e := range entries {
		if err := r.Register(e.spec, e.handler); err != nil {
			return err
		}
	}
	return nil
}

// FormatValue renders a float with the fewest digits that round-trip.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// history fetches the configured lookback. A ticker without data is
// reported as ErrDataUnavailable as well as market.ErrNoData.
func (s *service) history(ctx context.Context, ticker string) ([]market.Bar, error) {
	bars, err := s.src.History(ctx, ticker, s.period)
	if errors.Is(err, market.ErrNoData) {
		return nil, fmt.Errorf("%w: %w", indicator.ErrDataUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", indicator.ErrDataUnavailable, ticker)
	}
	return bars, nil
}

func (s *service) closes(ctx context.Context, ticker string) ([]float64, error) {
	bars, err := s.history(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return market.Closes(bars), nil
}

func (s *service) stockPrice(ctx context.Context, a tickerArgs) (string, error) {
	closes, err := s.closes(ctx, a.Ticker)
	if err != nil {
		return "", err
	}
	return FormatValue(closes[len(closes)-1]), nil
}

func (s *service) sma(ctx context.Context, a windowArgs) (string, error) {
	if a.Window < 1 {
		return "", fmt.Errorf("%w: %d", indicator.ErrInvalidWindow, a.Window)
	}
	closes, err := s.closes(ctx, a.Ticker)
	if err != nil {
		return "", err
	}
	v, err := indicator.SMA(closes, a.Window)
	if err != nil {
		return "", fmt.Errorf("SMA(%d) for %s: %w", a.Window, a.Ticker, err)
	}
	return FormatValue(v), nil
}

func (s *service) ema(ctx context.Context, a windowArgs) (string, error) {
	if a.Window < 1 {
		return "", fmt.Errorf("%w: %d", indicator.ErrInvalidWindow, a.Window)
	}
	closes, err := s.closes(ctx, a.Ticker)
	if err != nil {
		return "", err
	}
	v, err := indicator.EMA(closes, a.Window)
	if err != nil {
		return "", fmt.Errorf("EMA(%d) for %s: %w", a.Window, a.Ticker, err)
	}
	return FormatValue(v), nil
}

func (s *service) rsi(ctx context.Context, a tickerArgs) (string, error) {
	closes, err := s.closes(ctx, a.Ticker)
	if err != nil {
		return "", err
	}
	v, err := indicator.RSI(closes, indicator.DefaultRSIPeriod)
	if err != nil {
		return "", fmt.Errorf("RSI for %s: %w", a.Ticker, err)
	}
	return FormatValue(v), nil
}

func (s *service) macd(ctx context.Context, a tickerArgs) (string, error) {
	closes, err := s.closes(ctx, a.Ticker)
	if err != nil {
		return "", err
	}
	res, err := indicator.MACD(closes)
	if err != nil {
		return "", fmt.Errorf("MACD for %s: %w", a.Ticker, err)
	}
	return fmt.Sprintf("%s, %s, %s", FormatValue(res.MACD), FormatValue(res.Signal), FormatValue(res.Histogram)), nil
}

func (s *service) dividendYield(ctx context.Context, a tickerArgs) (string, error) {
	info, err := s.src.Info(ctx, a.Ticker)
	if err != nil {
		return "", err
	}
	if info.DividendYield == nil || *info.DividendYield <= 0 {
		return NoDividendYield, nil
	}
	return fmt.Sprintf("%.2f%%", *info.DividendYield*100), nil
}

func (s *service) plotMovingAverages(path string) func(context.Context, tickerArgs) (string, error) {
	return func(ctx context.Context, a tickerArgs) (string, error) {
		bars, err := s.history(ctx, a.Ticker)
		if err != nil {
			return "", err
		}
		if err := chart.MovingAveragesChart(a.Ticker, bars, path); err != nil {
			return "", err
		}
		return path, nil
	}
}

func (s *service) plotStockPrice(path string) func(context.Context, tickerArgs) (string, error) {
	return func(ctx context.Context, a tickerArgs) (string, error) {
		bars, err := s.history(ctx, a.Ticker)
		if err != nil {
			return "", err
		}
		if err := chart.PriceChart(a.Ticker, bars, path); err != nil {
			return "", err
		}
		return path, nil
	}
}
