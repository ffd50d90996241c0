package indicator

// SMAIndicator keeps a ring buffer of the last period closes.
type SMAIndicator struct {
	period int
	buf    []float64
	pos    int
	count  int
	sum    float64
}

func NewSMA(period int) *SMAIndicator {
	return &SMAIndicator{period: period, buf: make([]float64, period)}
}

func (s *SMAIndicator) Name() string { return "SMA" }

func (s *SMAIndicator) Update(price float64) {
	if s.count >= s.period {
		s.sum -= s.buf[s.pos]
	} else {
		s.count++
	}
	s.buf[s.pos] = price
	s.sum += price
	s.pos = (s.pos + 1) % s.period
}

func (s *SMAIndicator) Value() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *SMAIndicator) Ready() bool { return s.count >= s.period }

// SMA returns the mean of the last window closes.
func SMA(closes []float64, window int) (float64, error) {
	if err := checkWindow(window, len(closes)); err != nil {
		return 0, err
	}
	return Run(NewSMA(window), closes)
}

// SMASeries returns the rolling mean for every close from index window-1 on,
// so out[i] lines up with closes[i+window-1].
func SMASeries(closes []float64, window int) ([]float64, error) {
	if err := checkWindow(window, len(closes)); err != nil {
		return nil, err
	}
	s := NewSMA(window)
	out := make([]float64, 0, len(closes)-window+1)
	for _, c := range closes {
		s.Update(c)
		if s.Ready() {
			out = append(out, s.Value())
		}
	}
	return out, nil
}
