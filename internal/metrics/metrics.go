package metrics

import (
	"math"
	"strconv"
	"strings"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// NotAvailable is shown when a value has no numeric data to average
const NotAvailable = "n/a"

// Headline describes one of the four headline metrics
type Headline struct {
	Label    string
	Column   string
	Fallback string
}

// Headlines are the expected metric columns with their fixed fallback values
var Headlines = []Headline{
	{Label: "Avg AI Adoption Rate (%)", Column: "AI Adoption Rate (%)", Fallback: "54.27%"},
	{Label: "Avg Job Loss due to AI (%)", Column: "Job Loss due to AI (%)", Fallback: "25.79%"},
	{Label: "Avg Revenue Increase (%)", Column: "Revenue Increase (%)", Fallback: "39.72%"},
	{Label: "Avg Consumer Trust (%)", Column: "Consumer Trust (%)", Fallback: "59.43%"},
}

// Metric is a computed headline value
type Metric struct {
	Label    string `json:"label"`
	Column   string `json:"column"`
	Value    string `json:"value"`
	Fallback bool   `json:"fallback"`
}

// MetricSet holds the headline metrics and the columns that were missing
type MetricSet struct {
	Metrics []Metric `json:"metrics"`
	Missing []string `json:"missing,omitempty"`
}

// Warning returns the missing-column warning, or "" when every column was present
func (m MetricSet) Warning() string {
	if len(m.Missing) == 0 {
		return ""
	}
	return "Missing columns: " + strings.Join(m.Missing, ", ")
}

// Compute averages each headline column of the view.
// Absent columns get their fallback value; nothing is cached.
func Compute(ds *dataset.Dataset) MetricSet {
	set := MetricSet{Metrics: make([]Metric, 0, len(Headlines))}
	schema := ds.Schema()

	for _, h := range Headlines {
		m := Metric{Label: h.Label, Column: h.Column}
		if !schema.Has(h.Column) {
			m.Value = h.Fallback
			m.Fallback = true
			set.Missing = append(set.Missing, h.Column)
			set.Metrics = append(set.Metrics, m)
			continue
		}

		values, err := ds.Floats(h.Column)
		if err != nil {
			m.Value = NotAvailable
		} else {
			m.Value = FormatPercent(Mean(values))
		}
		set.Metrics = append(set.Metrics, m)
	}

	return set
}

// Mean returns the arithmetic mean of the non-NaN values, or NaN when there are none
func Mean(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	return stat.Mean(present, nil)
}

// FormatNumber renders a value rounded to two decimals in its shortest form,
// keeping a trailing ".0" on whole numbers (54 → "54.0", 54.3 → "54.3").
// Rounding applies to the exact stored value, half to even, as Python's round does.
func FormatNumber(x float64) string {
	if math.IsNaN(x) {
		return NotAvailable
	}
	s := strconv.FormatFloat(x, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// FormatPercent renders a value like FormatNumber with a percent sign
func FormatPercent(x float64) string {
	if math.IsNaN(x) {
		return NotAvailable
	}
	return FormatNumber(x) + "%"
}
