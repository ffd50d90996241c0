// Package market fetches daily price history and reference data for a ticker.
package market

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNoData means the upstream has no series for the ticker and period.
	ErrNoData        = errors.New("no market data")
	ErrInvalidTicker = errors.New("invalid ticker")
	ErrInvalidPeriod = errors.New("invalid period")
)

// Bar is one trading day. Series are ordered by Date ascending.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

type Info struct {
	Symbol   string
	Currency string

	// DividendYield is a fraction (0.0052 for 0.52%). Nil when the ticker
	// pays no dividend or the upstream does not report one.
	DividendYield *float64
}

// Source is a historical-data provider.
type Source interface {
	History(ctx context.Context, ticker, period string) ([]Bar, error)
	Info(ctx context.Context, ticker string) (Info, error)
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,19}$`)

// NormalizeTicker upper-cases and validates a symbol.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return t, nil
}

var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

func ValidatePeriod(period string) error {
	if !validPeriods[period] {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return nil
}
