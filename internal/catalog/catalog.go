package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
)

// ErrUnknownDataset is returned for names the catalog does not hold
var ErrUnknownDataset = errors.New("unknown dataset")

// Entry describes a dataset file found in a data directory
type Entry struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
	path   string
}

// Path returns the file location of the entry
func (e Entry) Path() string {
	return e.path
}

// Catalog indexes the dataset files available to sessions
type Catalog struct {
	dirs    []string
	entries map[string]Entry
	mu      sync.RWMutex
}

// New scans the given directories for CSV and SQLite datasets
func New(dirs ...string) *Catalog {
	c := &Catalog{dirs: dirs}
	c.Rescan()
	return c
}

// Rescan rebuilds the index from the catalog's directories.
// The first directory wins when two hold a file of the same name.
func (c *Catalog) Rescan() {
	entries := make(map[string]Entry)

	for _, dir := range c.dirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			log.Printf("Warning: failed to read directory %s: %v", dir, err)
			continue
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			format := formatOf(f.Name())
			if format == "" {
				continue
			}
			if _, exists := entries[f.Name()]; exists {
				continue
			}

			path := filepath.Join(dir, f.Name())
			if format == "sqlite" && !hasDatasetTable(path) {
				log.Printf("Warning: %s has no %s table", f.Name(), dataset.TableName)
				continue
			}

			var size int64
			if info, err := f.Info(); err == nil {
				size = info.Size()
			}
			entries[f.Name()] = Entry{Name: f.Name(), Format: format, Size: size, path: path}
		}
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// List returns the catalogued datasets sorted by name
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the entry for a dataset file name
func (c *Catalog) Get(name string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return e, nil
}

func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "csv"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	}
	return ""
}

// hasDatasetTable reports whether the SQLite file at path can be loaded
func hasDatasetTable(path string) bool {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return false
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name=?", dataset.TableName).Scan(&count)
	return err == nil && count > 0
}
