package charts

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
)

var (
	// ErrNoPNG is returned for figures that only render in the browser
	ErrNoPNG = errors.New("png rendering not available for chart kind")
	// ErrNotRenderable is returned when the data cannot be drawn, such as a
	// single line point or an all-zero pie
	ErrNotRenderable = errors.New("chart cannot be drawn from this data")
)

const (
	pngWidth  = 1024
	pngHeight = 512
)

// RenderPNG draws bar, line and pie figures as PNG images
func RenderPNG(fig *Figure, w io.Writer) error {
	if err := renderPNG(fig, w); err != nil {
		if errors.Is(err, ErrNoPNG) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNotRenderable, err)
	}
	return nil
}

func renderPNG(fig *Figure, w io.Writer) error {
	if fig.Warning != "" {
		return errors.New(fig.Warning)
	}

	switch fig.Kind {
	case KindBar:
		bc := chart.BarChart{
			Title:      fig.Title,
			Width:      pngWidth,
			Height:     pngHeight,
			BarWidth:   40,
			Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
			Bars:       values(fig),
		}
		return bc.Render(chart.PNG, w)

	case KindPie:
		pc := chart.PieChart{
			Title:  fig.Title,
			Width:  pngHeight,
			Height: pngHeight,
			Values: values(fig),
		}
		return pc.Render(chart.PNG, w)

	case KindLine:
		points := fig.Series[0].Points
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for i, p := range points {
			xs[i] = float64(i)
			ys[i] = p.Value
		}
		ch := chart.Chart{
			Title:      fig.Title,
			Width:      pngWidth,
			Height:     pngHeight,
			Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
			XAxis:      chart.XAxis{Name: fig.XAxis},
			YAxis:      chart.YAxis{Name: fig.YAxis},
			Series: []chart.Series{
				chart.ContinuousSeries{Name: fig.Series[0].Name, XValues: xs, YValues: ys},
			},
		}
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
		return ch.Render(chart.PNG, w)
	}

	return fmt.Errorf("%w: %s", ErrNoPNG, fig.Kind)
}

func values(fig *Figure) []chart.Value {
	var out []chart.Value
	for _, s := range fig.Series {
		for _, p := range s.Points {
			out = append(out, chart.Value{Label: p.Label, Value: p.Value})
		}
	}
	return out
}
