// Package indicator implements the technical indicators behind the chat
// functions. Each indicator is an O(1)-per-update accumulator; the package
// functions run one over a close series and return its final value.
//
// Exponential averages follow the non-adjusted recursive form: the first
// observation seeds the average and every later one is blended in with
// weight alpha.
package indicator

import (
	"errors"
	"math"
)

var (
	// ErrDataUnavailable means the series is too short or the result is not
	// a finite number.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrInvalidWindow   = errors.New("invalid window")
)

// Indicator is a streaming calculation fed one close at a time.
type Indicator interface {
	Name() string
	Update(price float64)
	Value() float64
	Ready() bool
}

// Run feeds every close into ind and returns its final value.
func Run(ind Indicator, closes []float64) (float64, error) {
	for _, c := range closes {
		ind.Update(c)
	}
	if !ind.Ready() {
		return 0, ErrDataUnavailable
	}
	return finite(ind.Value())
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrDataUnavailable
	}
	return v, nil
}

func checkWindow(window, n int) error {
	if window < 1 {
		return ErrInvalidWindow
	}
	if n == 0 || window > n {
		return ErrDataUnavailable
	}
	return nil
}
