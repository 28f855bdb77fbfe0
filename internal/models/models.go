package models

import (
	"github.com/kartoza/ai-impact-dashboard/internal/metrics"
	"github.com/kartoza/ai-impact-dashboard/internal/session"
)

// LoadRequest names a catalogued dataset to load into a session
type LoadRequest struct {
	Name string `json:"name"`
}

// FilterRequest selects the rows whose Column value is one of Values
type FilterRequest struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// FilterResponse reports the session after a filter or reset
type FilterResponse struct {
	Applied bool         `json:"applied"`
	Session session.Info `json:"session"`
}

// SummaryResponse contains everything the metrics panel displays
type SummaryResponse struct {
	Session  session.Info      `json:"session"`
	Metrics  metrics.MetricSet `json:"metrics"`
	Warning  string            `json:"warning,omitempty"`
	Overview metrics.Overview  `json:"overview"`
}

// RowsResponse is a page of the working view
type RowsResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Offset  int        `json:"offset"`
	Total   int        `json:"total"`
}

// DomainResponse lists the values a categorical column can be filtered to
type DomainResponse struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}
