package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
	"github.com/kartoza/ai-impact-dashboard/internal/loader"
)

// State is the filter state of a session
type State string

const (
	StateAwaitingUpload State = "awaiting_upload"
	StateUnfiltered     State = "unfiltered"
	StateFiltered       State = "filtered"
)

// NoneColumn is the filter column choice meaning "no filter"
const NoneColumn = "None"

var (
	ErrNoDataset        = errors.New("no dataset loaded")
	ErrNotCategorical   = errors.New("column is not categorical")
	ErrValueNotInDomain = errors.New("value not present in column")
)

// FilterSpec selects the rows whose value in Column is one of Values
type FilterSpec struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// Info is the JSON description of a session
type Info struct {
	ID        string       `json:"id"`
	State     State        `json:"state"`
	Source    string       `json:"source,omitempty"`
	LoadError string       `json:"loadError,omitempty"`
	Rows      int          `json:"rows"`
	Filters   []FilterSpec `json:"filters"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt"`
}

// Session holds one user's dataset: the snapshot taken at load time and the
// working view derived from it. The working view is replaced, never mutated.
type Session struct {
	id        string
	createdAt string
	updatedAt string

	mu       sync.Mutex
	source   string
	loadErr  error
	original *dataset.Dataset
	working  *dataset.Dataset
	filters  []FilterSpec
}

func newSession(id string) *Session {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Session{id: id, createdAt: now, updatedAt: now}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Load reads the dataset at path. On failure a session without a dataset
// awaits an upload; the returned error is a *loader.LoadError.
func (s *Session) Load(path string) error {
	ds, err := loader.Load(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.original == nil {
			s.fail(err)
		}
		return err
	}
	s.install(ds, path)
	return nil
}

// LoadUpload parses an uploaded CSV in place of the default source
func (s *Session) LoadUpload(name string, r io.Reader) error {
	ds, err := loader.LoadUpload(name, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// A failed upload does not discard a dataset that is already loaded
		if s.original == nil {
			s.fail(err)
		}
		return err
	}
	s.install(ds, name)
	return nil
}

func (s *Session) fail(err error) {
	s.loadErr = err
	s.touch()
	log.Printf("Warning: session %s has no dataset: %v", s.id, err)
}

func (s *Session) install(ds *dataset.Dataset, source string) {
	s.source = source
	s.loadErr = nil
	s.original = ds
	s.working = ds.Copy()
	s.filters = nil
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC().Format(time.RFC3339)
}

// State returns the current filter state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	switch {
	case s.original == nil:
		return StateAwaitingUpload
	case len(s.filters) > 0:
		return StateFiltered
	default:
		return StateUnfiltered
	}
}

// LoadErr returns the error of the last failed load, if the session has no dataset
func (s *Session) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// View returns the current working view
func (s *Session) View() (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.working == nil {
		return nil, ErrNoDataset
	}
	return s.working, nil
}

// Snapshot returns the dataset as originally loaded
func (s *Session) Snapshot() (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original == nil {
		return nil, ErrNoDataset
	}
	return s.original, nil
}

// Filters returns the filters applied since the last load or reset
func (s *Session) Filters() []FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FilterSpec{}, s.filters...)
}

// Domain returns the distinct values of a categorical column in the working view
func (s *Session) Domain(column string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.working == nil {
		return nil, ErrNoDataset
	}
	return s.domain(column)
}

func (s *Session) domain(column string) ([]string, error) {
	kind, ok := s.working.Schema().Kind(column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownColumn, column)
	}
	if kind != dataset.Categorical {
		return nil, fmt.Errorf("%w: %s", ErrNotCategorical, column)
	}
	return s.working.Distinct(column)
}

// ApplyFilter narrows the working view to the rows matching spec.
// Filters compose: each one applies to the current working view.
// An empty column, the None column or an empty value list leaves the view
// unchanged and reports false.
func (s *Session) ApplyFilter(spec FilterSpec) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.working == nil {
		return false, ErrNoDataset
	}
	if spec.Column == "" || spec.Column == NoneColumn || len(spec.Values) == 0 {
		return false, nil
	}

	domain, err := s.domain(spec.Column)
	if err != nil {
		return false, err
	}
	allowed := make(map[string]bool, len(domain))
	for _, v := range domain {
		allowed[v] = true
	}
	for _, v := range spec.Values {
		if !allowed[v] {
			return false, fmt.Errorf("%w: %s=%q", ErrValueNotInDomain, spec.Column, v)
		}
	}

	filtered, err := s.working.FilterIn(spec.Column, spec.Values)
	if err != nil {
		return false, err
	}

	s.working = filtered
	s.filters = append(s.filters, FilterSpec{
		Column: spec.Column,
		Values: append([]string{}, spec.Values...),
	})
	s.touch()
	return true, nil
}

// Reset restores the working view to a copy of the loaded snapshot
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original == nil {
		return ErrNoDataset
	}
	s.working = s.original.Copy()
	s.filters = nil
	s.touch()
	return nil
}

// Info describes the session
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		ID:        s.id,
		State:     s.state(),
		Source:    s.source,
		Filters:   append([]FilterSpec{}, s.filters...),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.loadErr != nil {
		info.LoadError = s.loadErr.Error()
	}
	if s.working != nil {
		info.Rows = s.working.Nrow()
	}
	return info
}
