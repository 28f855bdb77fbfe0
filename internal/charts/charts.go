package charts

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
)

// Kind is a chart type offered by the dashboard
type Kind string

const (
	KindBar      Kind = "bar"
	KindLine     Kind = "line"
	KindPie      Kind = "pie"
	KindSunburst Kind = "sunburst"
	KindHeatmap  Kind = "heatmap"
	KindTreemap  Kind = "treemap"
)

// Kinds lists the chart types in display order
var Kinds = []Kind{KindBar, KindLine, KindPie, KindSunburst, KindHeatmap, KindTreemap}

// InsufficientSelectionWarning is reported when a hierarchy has fewer than two columns
const InsufficientSelectionWarning = "Please select at least two columns for the hierarchy."

var (
	ErrUnsupportedKind  = errors.New("unsupported chart kind")
	ErrNotNumeric       = errors.New("column is not numeric")
	ErrNotCategorical   = errors.New("column is not categorical")
	ErrNoNumericColumns = errors.New("dataset has no numeric columns")
)

// Request holds the display parameters chosen for a chart.
// Empty fields fall back to the first suitable column.
type Request struct {
	Kind  Kind     `json:"kind"`
	X     string   `json:"x,omitempty"`
	Y     string   `json:"y,omitempty"`
	Label string   `json:"label,omitempty"`
	Value string   `json:"value,omitempty"`
	Path  []string `json:"path,omitempty"`
}

// Point is one labelled value
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is an ordered list of points
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Node is an element of a sunburst or treemap hierarchy
type Node struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Children []*Node `json:"children,omitempty"`
}

// Matrix is a correlation matrix; nil cells are undefined
type Matrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Figure is the render-ready chart description.
// Exactly one of Series, Root or Matrix is set unless Warning is.
type Figure struct {
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title"`
	XAxis   string   `json:"xAxis,omitempty"`
	YAxis   string   `json:"yAxis,omitempty"`
	Series  []Series `json:"series,omitempty"`
	Root    *Node    `json:"root,omitempty"`
	Matrix  *Matrix  `json:"matrix,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// Build computes the figure for req over ds
func Build(ds *dataset.Dataset, req Request) (*Figure, error) {
	schema := ds.Schema()

	switch req.Kind {
	case KindBar, KindLine:
		x, err := pickColumn(schema, req.X, first(schema.Names()), false)
		if err != nil {
			return nil, err
		}
		y, err := pickNumeric(schema, req.Y)
		if err != nil {
			return nil, err
		}
		if req.Kind == KindBar {
			return bar(ds, x, y)
		}
		return line(ds, x, y)

	case KindPie:
		label, err := pickColumn(schema, req.Label, first(schema.Categorical()), true)
		if err != nil {
			return nil, err
		}
		value, err := pickNumeric(schema, req.Value)
		if err != nil {
			return nil, err
		}
		return pie(ds, label, value)

	case KindSunburst, KindTreemap:
		path := req.Path
		if path == nil {
			path = schema.Names()
			if len(path) > 2 {
				path = path[:2]
			}
		}
		if len(path) < 2 {
			return &Figure{Kind: req.Kind, Warning: InsufficientSelectionWarning}, nil
		}
		for _, col := range path {
			if !schema.Has(col) {
				return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownColumn, col)
			}
		}
		value, err := pickNumeric(schema, req.Value)
		if err != nil {
			return nil, err
		}
		return hierarchy(ds, req.Kind, path, value)

	case KindHeatmap:
		return heatmap(ds)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, req.Kind)
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func pickColumn(schema dataset.Schema, name, fallback string, categorical bool) (string, error) {
	if name == "" {
		name = fallback
	}
	if name == "" || !schema.Has(name) {
		return "", fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, name)
	}
	if categorical && !schema.IsCategorical(name) {
		return "", fmt.Errorf("%w: %s", ErrNotCategorical, name)
	}
	return name, nil
}

func pickNumeric(schema dataset.Schema, name string) (string, error) {
	if name == "" {
		name = first(schema.Numeric())
		if name == "" {
			return "", ErrNoNumericColumns
		}
	}
	if !schema.Has(name) {
		return "", fmt.Errorf("%w: %s", dataset.ErrUnknownColumn, name)
	}
	if !schema.IsNumeric(name) {
		return "", fmt.Errorf("%w: %s", ErrNotNumeric, name)
	}
	return name, nil
}

// bar sums y for each distinct x, in order of first appearance
func bar(ds *dataset.Dataset, x, y string) (*Figure, error) {
	points, err := sumBy(ds, x, y)
	if err != nil {
		return nil, err
	}
	return &Figure{
		Kind:   KindBar,
		Title:  fmt.Sprintf("%s by %s", y, x),
		XAxis:  x,
		YAxis:  y,
		Series: []Series{{Name: y, Points: points}},
	}, nil
}

// line plots y for every row in row order
func line(ds *dataset.Dataset, x, y string) (*Figure, error) {
	labels, missing, err := ds.Cells(x)
	if err != nil {
		return nil, err
	}
	values, err := ds.Floats(y)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(values))
	for i, v := range values {
		if missing[i] || math.IsNaN(v) {
			continue
		}
		points = append(points, Point{Label: labels[i], Value: v})
	}
	return &Figure{
		Kind:   KindLine,
		Title:  fmt.Sprintf("%s Over %s", y, x),
		XAxis:  x,
		YAxis:  y,
		Series: []Series{{Name: y, Points: points}},
	}, nil
}

// pie sums value for each label
func pie(ds *dataset.Dataset, label, value string) (*Figure, error) {
	points, err := sumBy(ds, label, value)
	if err != nil {
		return nil, err
	}
	return &Figure{
		Kind:   KindPie,
		Title:  fmt.Sprintf("%s by %s", value, label),
		Series: []Series{{Name: value, Points: points}},
	}, nil
}

func sumBy(ds *dataset.Dataset, key, value string) ([]Point, error) {
	labels, missing, err := ds.Cells(key)
	if err != nil {
		return nil, err
	}
	values, err := ds.Floats(value)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var points []Point
	for i, v := range values {
		if missing[i] || math.IsNaN(v) {
			continue
		}
		j, ok := index[labels[i]]
		if !ok {
			j = len(points)
			index[labels[i]] = j
			points = append(points, Point{Label: labels[i]})
		}
		points[j].Value += v
	}
	return points, nil
}

// hierarchy nests rows along path and sums value at every level
func hierarchy(ds *dataset.Dataset, kind Kind, path []string, value string) (*Figure, error) {
	levels := make([][]string, len(path))
	gaps := make([][]bool, len(path))
	for i, col := range path {
		cells, missing, err := ds.Cells(col)
		if err != nil {
			return nil, err
		}
		levels[i], gaps[i] = cells, missing
	}
	values, err := ds.Floats(value)
	if err != nil {
		return nil, err
	}

	root := &Node{}
	children := map[*Node]map[string]*Node{}
rows:
	for r, v := range values {
		if math.IsNaN(v) {
			continue
		}
		for i := range path {
			if gaps[i][r] {
				continue rows
			}
		}

		node := root
		node.Value += v
		for i := range path {
			label := levels[i][r]
			if children[node] == nil {
				children[node] = map[string]*Node{}
			}
			child, ok := children[node][label]
			if !ok {
				child = &Node{Label: label}
				children[node][label] = child
				node.Children = append(node.Children, child)
			}
			child.Value += v
			node = child
		}
	}

	title := "Sunburst: "
	if kind == KindTreemap {
		title = "Treemap: "
	}
	return &Figure{
		Kind:  kind,
		Title: title + strings.Join(path, " > "),
		Root:  root,
	}, nil
}
