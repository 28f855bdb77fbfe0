package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// missingValues are the cell contents read as missing data
var missingValues = []string{"", "NA", "NaN", "N/A", "null", "<nil>"}

// ErrUnknownColumn is returned when a column name is not part of the dataset
var ErrUnknownColumn = errors.New("unknown column")

// Dataset is an immutable table of named, typed columns.
// Operations that change rows return a new Dataset.
type Dataset struct {
	df     dataframe.DataFrame
	schema Schema
}

// ReadCSV parses a CSV stream with a header row
func ReadCSV(r io.Reader) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	return FromRecords(records)
}

// FromRecords builds a dataset from a header row followed by data rows.
// A header without rows gives an empty dataset with text columns.
func FromRecords(records [][]string) (*Dataset, error) {
	if len(records) == 1 {
		return empty(records[0])
	}
	df := dataframe.LoadRecords(records, dataframe.NaNValues(missingValues))
	return fromDataFrame(df)
}

func empty(header []string) (*Dataset, error) {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return fromDataFrame(dataframe.New(cols...))
}

func fromDataFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", df.Err)
	}
	if df.Ncol() == 0 {
		return nil, fmt.Errorf("failed to parse table: no columns")
	}
	return &Dataset{df: df, schema: newSchema(df.Names(), df.Types())}, nil
}

// Schema returns the column descriptor computed at load time
func (d *Dataset) Schema() Schema {
	return d.schema
}

// Nrow returns the number of rows
func (d *Dataset) Nrow() int {
	return d.df.Nrow()
}

// Names returns the column names in header order
func (d *Dataset) Names() []string {
	return d.schema.Names()
}

// Copy returns a deep copy of the dataset
func (d *Dataset) Copy() *Dataset {
	return &Dataset{df: d.df.Copy(), schema: d.schema}
}

// FilterIn returns the rows whose value in column is one of values
func (d *Dataset) FilterIn(column string, values []string) (*Dataset, error) {
	if !d.schema.Has(column) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	filtered := d.df.Filter(dataframe.F{
		Colname:    column,
		Comparator: series.In,
		Comparando: values,
	})
	if filtered.Err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", column, filtered.Err)
	}
	return &Dataset{df: filtered, schema: d.schema}, nil
}

// Cells returns the column's values as text; missing cells are "" and flagged in the mask
func (d *Dataset) Cells(column string) ([]string, []bool, error) {
	s, err := d.col(column)
	if err != nil {
		return nil, nil, err
	}
	cells := make([]string, s.Len())
	missing := make([]bool, s.Len())
	for i := range cells {
		cells[i], missing[i] = cell(s, i)
	}
	return cells, missing, nil
}

// Floats returns the column as float64; missing or non-numeric cells are NaN
func (d *Dataset) Floats(column string) ([]float64, error) {
	s, err := d.col(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = math.NaN()
			continue
		}
		out[i] = e.Float()
	}
	return out, nil
}

// Distinct returns the non-missing values of a column in order of first appearance
func (d *Dataset) Distinct(column string) ([]string, error) {
	cells, missing, err := d.Cells(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var values []string
	for i, v := range cells {
		if missing[i] || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values, nil
}

// Rows returns the data rows as text, missing cells rendered as ""
func (d *Dataset) Rows() [][]string {
	return d.Slice(0, d.Nrow())
}

// Slice returns up to limit rows starting at offset
func (d *Dataset) Slice(offset, limit int) [][]string {
	n := d.Nrow()
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if limit < 0 || end > n {
		end = n
	}

	cols := make([]series.Series, d.df.Ncol())
	for j, name := range d.Names() {
		cols[j] = d.df.Col(name)
	}

	rows := make([][]string, 0, end-offset)
	for i := offset; i < end; i++ {
		row := make([]string, len(cols))
		for j, s := range cols {
			row[j], _ = cell(s, i)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the header and rows without an index column.
// Floats are written with the shortest exact representation so a re-read yields equal rows.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range d.Rows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (d *Dataset) col(column string) (series.Series, error) {
	if !d.schema.Has(column) {
		return series.Series{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	s := d.df.Col(column)
	if s.Err != nil {
		return series.Series{}, s.Err
	}
	return s, nil
}

// cell formats element i of s, reporting whether it is missing
func cell(s series.Series, i int) (string, bool) {
	e := s.Elem(i)
	if e.IsNA() {
		return "", true
	}
	if s.Type() == series.Float {
		return strconv.FormatFloat(e.Float(), 'f', -1, 64), false
	}
	return e.String(), false
}
