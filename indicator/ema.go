package indicator

// EMAIndicator is an exponential moving average with alpha = 2/(span+1),
// seeded by the first close.
type EMAIndicator struct {
	alpha   float64
	current float64
	count   int
}

func NewEMA(span int) *EMAIndicator {
	return &EMAIndicator{alpha: 2.0 / float64(span+1)}
}

// newEWM builds an average from a raw smoothing factor.
func newEWM(alpha float64) *EMAIndicator {
	return &EMAIndicator{alpha: alpha}
}

func (e *EMAIndicator) Name() string { return "EMA" }

func (e *EMAIndicator) Update(price float64) {
	e.count++
	if e.count == 1 {
		e.current = price
		return
	}
	e.current = e.alpha*price + (1-e.alpha)*e.current
}

func (e *EMAIndicator) Value() float64 { return e.current }
func (e *EMAIndicator) Ready() bool    { return e.count > 0 }

// EMA returns the exponential moving average of closes with the given span.
func EMA(closes []float64, window int) (float64, error) {
	if err := checkWindow(window, len(closes)); err != nil {
		return 0, err
	}
	return Run(NewEMA(window), closes)
}
