package indicator

import "math"

const DefaultRSIPeriod = 14

// RSIIndicator smooths gains and losses with exponential averages of
// alpha = 1/period. Both averages are seeded by the first price change.
type RSIIndicator struct {
	period    int
	count     int
	prevClose float64
	up        *EMAIndicator
	down      *EMAIndicator
}

func NewRSI(period int) *RSIIndicator {
	alpha := 1.0 / float64(period)
	return &RSIIndicator{
		period: period,
		up:     newEWM(alpha),
		down:   newEWM(alpha),
	}
}

func (r *RSIIndicator) Name() string { return "RSI" }

func (r *RSIIndicator) Update(price float64) {
	r.count++
	if r.count == 1 {
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	r.up.Update(gain)
	r.down.Update(loss)
}

// Value is NaN when no losses have been seen, since the ratio is undefined.
func (r *RSIIndicator) Value() float64 {
	avgLoss := r.down.Value()
	if avgLoss == 0 {
		return math.NaN()
	}
	rs := r.up.Value() / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

func (r *RSIIndicator) Ready() bool { return r.count >= 2 }

// RSI returns the relative strength index of closes. A series with no down
// moves has no defined RSI and yields ErrDataUnavailable.
func RSI(closes []float64, period int) (float64, error) {
	if period < 1 {
		return 0, ErrInvalidWindow
	}
	if len(closes) < 2 {
		return 0, ErrDataUnavailable
	}
	return Run(NewRSI(period), closes)
}
