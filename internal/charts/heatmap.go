package charts

import (
	"math"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// heatmap correlates every pair of numeric columns over the rows where both are present
func heatmap(ds *dataset.Dataset) (*Figure, error) {
	columns := ds.Schema().Numeric()
	if len(columns) == 0 {
		return nil, ErrNoNumericColumns
	}

	data := make([][]float64, len(columns))
	for i, col := range columns {
		values, err := ds.Floats(col)
		if err != nil {
			return nil, err
		}
		data[i] = values
	}

	matrix := &Matrix{Columns: columns, Values: make([][]*float64, len(columns))}
	for i := range columns {
		matrix.Values[i] = make([]*float64, len(columns))
	}
	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := pairwiseCorrelation(data[i], data[j])
			if math.IsNaN(r) {
				continue
			}
			matrix.Values[i][j] = &r
			matrix.Values[j][i] = &r
		}
	}

	return &Figure{
		Kind:   KindHeatmap,
		Title:  "Feature Correlation Heatmap",
		Matrix: matrix,
	}, nil
}

// pairwiseCorrelation returns Pearson's r over the complete pairs, NaN when undefined
func pairwiseCorrelation(a, b []float64) float64 {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
