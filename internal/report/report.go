// Package report renders diagnostic charts of an analysis result.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ayusman/gearcount/internal/gear"
)

// ErrNoProfile is returned for results that never reached profiling.
var ErrNoProfile = errors.New("result has no radial profile")

// Default chart size.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// palette returns n evenly spaced hues.
func palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		out[i] = colorful.Hsv(float64(i)*360/float64(n), 0.75, 0.85).Clamped()
	}
	return out
}

// ProfilePlot builds a chart of the radial profile of r: the distance of
// every contour point from the centroid, the midpoint threshold, the tooth
// mask drawn as a step between the extremes, and a marker at each tooth start.
func ProfilePlot(r gear.Result) (*plot.Plot, error) {
	if len(r.Profile) == 0 {
		return nil, ErrNoProfile
	}

	lo, hi := r.Profile[0], r.Profile[0]
	profile := make(plotter.XYs, len(r.Profile))
	for i, d := range r.Profile {
		profile[i] = plotter.XY{X: float64(i), Y: d}
		lo, hi = min(lo, d), max(hi, d)
	}
	threshold := gear.ProfileThreshold(r.Profile)

	colors := palette(4)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Radial profile (%s, %d teeth)", r.Outcome, r.ToothCount())
	p.X.Label.Text = "Contour point"
	p.Y.Label.Text = "Distance (px)"

	line, err := plotter.NewLine(profile)
	if err != nil {
		return nil, fmt.Errorf("profile line: %w", err)
	}
	line.Color = colors[0]
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("distance", line)

	thresholdLine, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: threshold},
		{X: float64(len(r.Profile) - 1), Y: threshold},
	})
	if err != nil {
		return nil, fmt.Errorf("threshold line: %w", err)
	}
	thresholdLine.Color = colors[1]
	thresholdLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(thresholdLine)
	p.Legend.Add(fmt.Sprintf("threshold %.1f", threshold), thresholdLine)

	if len(r.Mask) == len(r.Profile) {
		steps := make(plotter.XYs, len(r.Mask))
		for i, m := range r.Mask {
			y := hi
			if m == 1 {
				y = lo
			}
			steps[i] = plotter.XY{X: float64(i), Y: y}
		}
		maskLine, err := plotter.NewLine(steps)
		if err != nil {
			return nil, fmt.Errorf("mask line: %w", err)
		}
		maskLine.StepStyle = plotter.PreStep
		maskLine.Color = colors[2]
		maskLine.Width = vg.Points(0.5)
		p.Add(maskLine)
		p.Legend.Add("mask", maskLine)
	}

	if len(r.Teeth) > 0 {
		starts := make(plotter.XYs, 0, len(r.Teeth))
		for _, t := range r.Teeth {
			if t.LowHighIdx < 0 || t.LowHighIdx >= len(r.Profile) {
				continue
			}
			starts = append(starts, plotter.XY{X: float64(t.LowHighIdx), Y: r.Profile[t.LowHighIdx]})
		}
		scatter, err := plotter.NewScatter(starts)
		if err != nil {
			return nil, fmt.Errorf("tooth starts: %w", err)
		}
		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		scatter.GlyphStyle.Color = colors[3]
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("tooth start", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())

	return p, nil
}

// WriteProfilePNG renders ProfilePlot(r) as a PNG of the default size.
func WriteProfilePNG(w io.Writer, r gear.Result) error {
	p, err := ProfilePlot(r)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, "png")
	if err != nil {
		return fmt.Errorf("render profile: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveProfilePNG writes the chart to path.
func SaveProfilePNG(path string, r gear.Result) error {
	p, err := ProfilePlot(r)
	if err != nil {
		return err
	}
	return p.Save(DefaultWidth, DefaultHeight, path)
}
