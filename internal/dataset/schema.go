package dataset

import "github.com/go-gota/gota/series"

// Kind classifies a column for selection logic
type Kind string

const (
	Categorical Kind = "categorical"
	Numeric     Kind = "numeric"
	// Boolean columns are neither filter categories nor measures
	Boolean Kind = "boolean"
)

// Column describes a single dataset column
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema maps column names to kinds, in header order.
// It is computed once when a dataset is loaded and shared by every view derived from it.
type Schema struct {
	Columns []Column `json:"columns"`
	kinds   map[string]Kind
}

func newSchema(names []string, types []series.Type) Schema {
	s := Schema{
		Columns: make([]Column, len(names)),
		kinds:   make(map[string]Kind, len(names)),
	}
	for i, name := range names {
		kind := Categorical
		switch types[i] {
		case series.Int, series.Float:
			kind = Numeric
		case series.Bool:
			kind = Boolean
		}
		s.Columns[i] = Column{Name: name, Kind: kind}
		s.kinds[name] = kind
	}
	return s
}

// Kind returns the kind of a column and whether it exists
func (s Schema) Kind(name string) (Kind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}

// Has reports whether the column exists
func (s Schema) Has(name string) bool {
	_, ok := s.kinds[name]
	return ok
}

// IsNumeric reports whether the column exists and is numeric
func (s Schema) IsNumeric(name string) bool {
	return s.kinds[name] == Numeric
}

// IsCategorical reports whether the column exists and is categorical
func (s Schema) IsCategorical(name string) bool {
	return s.kinds[name] == Categorical
}

// Names returns all column names
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Numeric returns the numeric column names
func (s Schema) Numeric() []string {
	return s.ofKind(Numeric)
}

// Categorical returns the categorical column names
func (s Schema) Categorical() []string {
	return s.ofKind(Categorical)
}

func (s Schema) ofKind(k Kind) []string {
	var names []string
	for _, c := range s.Columns {
		if c.Kind == k {
			names = append(names, c.Name)
		}
	}
	return names
}
