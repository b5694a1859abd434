package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	filteredColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	smoothedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SavePNG writes one plot per state component into dir and returns the file
// paths in state order.
func SavePNG(dir string, in Input) ([]string, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	var files []string
	for k := 0; k < in.nState(); k++ {
		p := plot.New()
		p.Title.Text = in.stateName(k)
		if in.Title != "" {
			p.Title.Text = in.Title + " - " + p.Title.Text
		}
		p.X.Label.Text = "Time"
		p.Y.Label.Text = in.stateName(k)

		if err := addBand(p, "filtered", in.filteredBand(k), filteredColor); err != nil {
			return files, err
		}
		if in.Smoothed != nil {
			if err := addBand(p, "smoothed", in.smoothedBand(k), smoothedColor); err != nil {
				return files, err
			}
		}

		path := filepath.Join(dir, fmt.Sprintf("state_%d.png", k))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return files, fmt.Errorf("save %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}

// addBand draws the mean as a solid line and the envelope as dashed lines.
func addBand(p *plot.Plot, name string, b band, c color.Color) error {
	mean, err := plotter.NewLine(xys(b.t, b.mean))
	if err != nil {
		return err
	}
	mean.Color = c
	mean.Width = vg.Points(1.5)
	p.Add(mean)
	p.Legend.Add(name, mean)

	for _, edge := range [][]float64{b.lo, b.hi} {
		l, err := plotter.NewLine(xys(b.t, edge))
		if err != nil {
			return err
		}
		l.Color = c
		l.Width = vg.Points(0.75)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
	}
	return nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	return pts
}
