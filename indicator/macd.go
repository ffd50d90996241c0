package indicator

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDResult holds the final MACD line, its signal line and their difference.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

type MACDIndicator struct {
	fast   *EMAIndicator
	slow   *EMAIndicator
	signal *EMAIndicator
	slowN  int
	count  int
}

func NewMACD(fast, slow, signal int) *MACDIndicator {
	return &MACDIndicator{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
		slowN:  slow,
	}
}

func (m *MACDIndicator) Name() string { return "MACD" }

func (m *MACDIndicator) Update(price float64) {
	m.count++
	m.fast.Update(price)
	m.slow.Update(price)
	m.signal.Update(m.line())
}

func (m *MACDIndicator) line() float64 { return m.fast.Value() - m.slow.Value() }

func (m *MACDIndicator) Value() float64 { return m.line() }
func (m *MACDIndicator) Ready() bool    { return m.count >= m.slowN }

func (m *MACDIndicator) Result() MACDResult {
	line := m.line()
	sig := m.signal.Value()
	return MACDResult{MACD: line, Signal: sig, Histogram: line - sig}
}

// MACD runs the standard 12/26/9 configuration over closes.
func MACD(closes []float64) (MACDResult, error) {
	if len(closes) < MACDSlow {
		return MACDResult{}, ErrDataUnavailable
	}
	m := NewMACD(MACDFast, MACDSlow, MACDSignal)
	for _, c := range closes {
		m.Update(c)
	}
	res := m.Result()
	for _, v := range []float64{res.MACD, res.Signal, res.Histogram} {
		if _, err := finite(v); err != nil {
			return MACDResult{}, err
		}
	}
	return res, nil
}
