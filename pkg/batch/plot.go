package batch

import(
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/abworrall/skycolor/pkg/colorize"
)

// PlotModes writes a scatter of corner/center ratio vs. center-minus-corner,
// one series per mode, with the two roof-closed thresholds drawn as lines.
func PlotModes(rows []AnalysisRow, th colorize.Thresholds, filename string) error {
	p := plot.New()
	p.Title.Text = "Roof state: corner/center ratio vs center-corner delta"
	p.X.Label.Text = "corner / center ratio"
	p.Y.Label.Text = "center - corner"

	byMode := map[string]plotter.XYs{}
	order := []string{}
	xMax, yMin, yMax := th.ClosedRatio, th.ClosedDelta, th.ClosedDelta
	for _, r := range rows {
		if r.Err != nil {
			continue
		}
		s := r.Info.Stats
		m := r.Mode()
		if _, exists := byMode[m]; !exists {
			order = append(order, m)
		}
		byMode[m] = append(byMode[m], plotter.XY{X: s.CornerToCenterRatio, Y: s.CenterMinusCorner})
		xMax = math.Max(xMax, s.CornerToCenterRatio)
		yMin = math.Min(yMin, s.CenterMinusCorner)
		yMax = math.Max(yMax, s.CenterMinusCorner)
	}
	if len(order) == 0 {
		return fmt.Errorf("PlotModes '%s': no classified frames", filename)
	}

	for i, m := range order {
		sc, err := plotter.NewScatter(byMode[m])
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("%s (%d)", m, len(byMode[m])), sc)
	}

	thresholdLine := func(pts plotter.XYs) error {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = color.Gray{0x80}
		l.Width = vg.Points(1)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(l)
		return nil
	}
	if err := thresholdLine(plotter.XYs{{X: th.ClosedRatio, Y: yMin}, {X: th.ClosedRatio, Y: yMax}}); err != nil {
		return err
	}
	if err := thresholdLine(plotter.XYs{{X: 0, Y: th.ClosedDelta}, {X: xMax, Y: th.ClosedDelta}}); err != nil {
		return err
	}

	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(10*vg.Inch, 7*vg.Inch, filename); err != nil {
		return fmt.Errorf("save mode plot '%s': %w", filename, err)
	}
	return nil
}
