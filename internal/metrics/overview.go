package metrics

import (
	"math"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
)

// Overview holds the quick metrics shown above the filter controls
type Overview struct {
	TotalRecords    int     `json:"totalRecords"`
	TotalCategories int     `json:"totalCategories"`
	AvgNumericValue string  `json:"avgNumericValue"`
	avg             float64 // unrounded mean of means, NaN when undefined
}

// Avg returns the unrounded mean of the numeric column means
func (o Overview) Avg() float64 {
	return o.avg
}

// ComputeOverview counts rows, sums distinct values over the categorical
// columns and averages the numeric columns' means
func ComputeOverview(ds *dataset.Dataset) Overview {
	o := Overview{TotalRecords: ds.Nrow()}
	schema := ds.Schema()

	for _, col := range schema.Categorical() {
		values, err := ds.Distinct(col)
		if err != nil {
			continue
		}
		o.TotalCategories += len(values)
	}

	var means []float64
	for _, col := range schema.Numeric() {
		values, err := ds.Floats(col)
		if err != nil {
			continue
		}
		means = append(means, Mean(values))
	}
	o.avg = Mean(means)
	if math.IsNaN(o.avg) {
		o.AvgNumericValue = NotAvailable
	} else {
		o.AvgNumericValue = FormatNumber(o.avg)
	}

	return o
}
