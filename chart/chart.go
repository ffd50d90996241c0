// Package chart renders price charts to PNG files.
package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"stockchat/indicator"
	"stockchat/market"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	Width  = 10 * vg.Inch
	Height = 5 * vg.Inch

	ShortWindow = 20
	LongWindow  = 50
)

// PriceChart plots the close series over time and writes it to path.
func PriceChart(ticker string, bars []market.Bar, path string) error {
	if len(bars) == 0 {
		return indicator.ErrDataUnavailable
	}

	p := newPlot(fmt.Sprintf("%s Stock Price YTD", ticker))
	p.Y.Label.Text = ""

	line, err := plotter.NewLine(closeXYs(bars))
	if err != nil {
		return fmt.Errorf("failed to build price line: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)

	return save(p, path)
}

// MovingAveragesChart plots the close series with its 20- and 50-day simple
// moving averages. An average is left out when the series is shorter than
// its window.
func MovingAveragesChart(ticker string, bars []market.Bar, path string) error {
	if len(bars) == 0 {
		return indicator.ErrDataUnavailable
	}

	p := newPlot(fmt.Sprintf("%s Stock Price and Moving Averages", ticker))
	p.Legend.Top = true
	p.Legend.Left = true

	price, err := plotter.NewLine(closeXYs(bars))
	if err != nil {
		return fmt.Errorf("failed to build price line: %w", err)
	}
	price.Color = plotutil.Color(0)
	p.Add(price)
	p.Legend.Add("Stock Price", price)

	closes := market.Closes(bars)
	for i, window := range []int{ShortWindow, LongWindow} {
		xys, err := smaXYs(bars, closes, window)
		if err != nil {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to build %d-day line: %w", window, err)
		}
		line.Color = plotutil.Color(i + 1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%d-Day SMA", window), line)
	}

	return save(p, path)
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())
	return p
}

func closeXYs(bars []market.Bar) plotter.XYs {
	xys := make(plotter.XYs, len(bars))
	for i, b := range bars {
		xys[i].X = float64(b.Date.Unix())
		xys[i].Y = b.Close
	}
	return xys
}

func smaXYs(bars []market.Bar, closes []float64, window int) (plotter.XYs, error) {
	sma, err := indicator.SMASeries(closes, window)
	if err != nil {
		return nil, err
	}
	xys := make(plotter.XYs, len(sma))
	offset := window - 1
	for i, v := range sma {
		xys[i].X = float64(bars[i+offset].Date.Unix())
		xys[i].Y = v
	}
	return xys, nil
}

// save writes to a temp file first so a reader never sees a half-written image.
func save(p *plot.Plot, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp.png")
	if err := p.Save(Width, Height, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
