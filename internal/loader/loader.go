package loader

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
)

// DefaultFile is the dataset looked up in the data directory at startup
const DefaultFile = "Global_AI_Content_Impact_Dataset.csv"

// LoadError reports why a dataset source could not be loaded
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads a dataset from a CSV file, or from a SQLite database when the
// path has a .db, .sqlite or .sqlite3 extension
func Load(path string) (*dataset.Dataset, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	if isSQLite(path) {
		ds, err = dataset.ReadSQLite(path)
	} else {
		ds, err = loadCSV(path)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	log.Printf("Loaded %d rows, %d columns from %s", ds.Nrow(), len(ds.Names()), path)
	return ds, nil
}

// LoadUpload parses a CSV file supplied by the user in place of the default source
func LoadUpload(name string, r io.Reader) (*dataset.Dataset, error) {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil, &LoadError{Source: name, Err: fmt.Errorf("file must be a .csv")}
	}

	ds, err := dataset.ReadCSV(r)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	log.Printf("Loaded %d rows, %d columns from upload %s", ds.Nrow(), len(ds.Names()), name)
	return ds, nil
}

func loadCSV(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadCSV(f)
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
