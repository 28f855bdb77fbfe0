package session

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
	"github.com/kartoza/ai-impact-dashboard/internal/loader"
	"github.com/kartoza/ai-impact-dashboard/internal/metrics"
)

const tenRowCSV = `Country,Industry,AI Adoption Rate (%),Job Loss due to AI (%),Revenue Increase (%),Consumer Trust (%)
US,Media,80,10,20,50
IN,Finance,40,20,30,70
US,Retail,70,30,40,60
DE,Media,30,40,50,80
IN,Retail,20,15,25,55
US,Finance,90,25,35,65
FR,Media,35,12,22,52
DE,Finance,45,18,28,58
US,Media,60,22,32,62
IN,Media,25,14,24,54
`

func writeDataset(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), loader.DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}
	return path
}

func loadedSession(t *testing.T) *Session {
	t.Helper()

	s := newSession("test")
	if err := s.Load(writeDataset(t, tenRowCSV)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func mustView(t *testing.T, s *Session) *dataset.Dataset {
	t.Helper()

	view, err := s.View()
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	return view
}

func TestLoadStartsUnfiltered(t *testing.T) {
	s := loadedSession(t)

	if s.State() != StateUnfiltered {
		t.Errorf("Expected unfiltered state, got %s", s.State())
	}
	snapshot, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !reflect.DeepEqual(mustView(t, s).Rows(), snapshot.Rows()) {
		t.Error("Working view should equal the snapshot after load")
	}
}

func TestLoadFailureAwaitsUpload(t *testing.T) {
	s := newSession("test")

	err := s.Load(filepath.Join(t.TempDir(), "missing.csv"))
	var loadErr *loader.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *loader.LoadError, got %v", err)
	}
	if s.State() != StateAwaitingUpload {
		t.Errorf("Expected awaiting upload, got %s", s.State())
	}
	if _, err := s.View(); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Expected ErrNoDataset, got %v", err)
	}
	if s.Info().LoadError == "" {
		t.Error("Expected load error in session info")
	}

	if err := s.LoadUpload("upload.csv", strings.NewReader(tenRowCSV)); err != nil {
		t.Fatalf("LoadUpload failed: %v", err)
	}
	if s.State() != StateUnfiltered {
		t.Errorf("Expected unfiltered after upload, got %s", s.State())
	}
	if s.LoadErr() != nil {
		t.Errorf("Expected load error cleared, got %v", s.LoadErr())
	}
}

func TestFailedUploadKeepsHalted(t *testing.T) {
	s := newSession("test")
	s.Load(filepath.Join(t.TempDir(), "missing.csv"))

	if err := s.LoadUpload("upload.csv", strings.NewReader("")); err == nil {
		t.Fatal("Expected error for empty upload")
	}
	if s.State() != StateAwaitingUpload {
		t.Errorf("Expected awaiting upload, got %s", s.State())
	}
}

func TestApplyFilterScenario(t *testing.T) {
	s := loadedSession(t)
	full := metrics.Compute(mustView(t, s))

	applied, err := s.ApplyFilter(FilterSpec{Column: "Country", Values: []string{"US"}})
	if err != nil {
		t.Fatalf("ApplyFilter failed: %v", err)
	}
	if !applied {
		t.Fatal("Expected filter to be applied")
	}
	if s.State() != StateFiltered {
		t.Errorf("Expected filtered state, got %s", s.State())
	}

	view := mustView(t, s)
	if view.Nrow() != 4 {
		t.Fatalf("Expected 4 US rows, got %d", view.Nrow())
	}
	countries, _, _ := view.Cells("Country")
	for _, c := range countries {
		if c != "US" {
			t.Errorf("Unexpected country %s in filtered view", c)
		}
	}

	filtered := metrics.Compute(view)
	if filtered.Metrics[0].Value != "75.0%" {
		t.Errorf("Expected US adoption 75.0%%, got %s", filtered.Metrics[0].Value)
	}
	if filtered.Metrics[0].Value == full.Metrics[0].Value {
		t.Error("Expected filtered metric to differ from the full dataset")
	}
}

func TestApplyFilterIdempotent(t *testing.T) {
	s := loadedSession(t)
	spec := FilterSpec{Column: "Country", Values: []string{"US", "DE"}}

	if _, err := s.ApplyFilter(spec); err != nil {
		t.Fatalf("ApplyFilter failed: %v", err)
	}
	once := mustView(t, s).Rows()

	if _, err := s.ApplyFilter(spec); err != nil {
		t.Fatalf("Second ApplyFilter failed: %v", err)
	}
	if !reflect.DeepEqual(mustView(t, s).Rows(), once) {
		t.Error("Applying the same filter twice changed the view")
	}
}

func TestApplyFilterNoOps(t *testing.T) {
	s := loadedSession(t)
	before := mustView(t, s)

	specs := []FilterSpec{
		{Column: "Country", Values: nil},
		{Column: NoneColumn, Values: []string{"US"}},
		{Column: "", Values: []string{"US"}},
	}
	for _, spec := range specs {
		applied, err := s.ApplyFilter(spec)
		if err != nil || applied {
			t.Errorf("%+v: expected no-op, got applied=%v err=%v", spec, applied, err)
		}
	}

	if mustView(t, s) != before {
		t.Error("No-op filters replaced the working view")
	}
	if s.State() != StateUnfiltered {
		t.Errorf("Expected unfiltered state, got %s", s.State())
	}
}

func TestApplyFilterInvalid(t *testing.T) {
	s := loadedSession(t)

	_, err := s.ApplyFilter(FilterSpec{Column: "AI Adoption Rate (%)", Values: []string{"80"}})
	if !errors.Is(err, ErrNotCategorical) {
		t.Errorf("Expected ErrNotCategorical, got %v", err)
	}

	_, err = s.ApplyFilter(FilterSpec{Column: "Region", Values: []string{"EU"}})
	if !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}

	_, err = s.ApplyFilter(FilterSpec{Column: "Country", Values: []string{"JP"}})
	if !errors.Is(err, ErrValueNotInDomain) {
		t.Errorf("Expected ErrValueNotInDomain, got %v", err)
	}

	if mustView(t, s).Nrow() != 10 {
		t.Error("Rejected filters changed the working view")
	}
}

func TestFiltersCompose(t *testing.T) {
	s := loadedSession(t)

	s.ApplyFilter(FilterSpec{Column: "Country", Values: []string{"US", "IN"}})
	s.ApplyFilter(FilterSpec{Column: "Industry", Values: []string{"Media"}})

	if got := mustView(t, s).Nrow(); got != 3 {
		t.Errorf("Expected 3 rows for US/IN media, got %d", got)
	}
	if got := len(s.Filters()); got != 2 {
		t.Errorf("Expected 2 recorded filters, got %d", got)
	}

	// Domain follows the working view
	domain, err := s.Domain("Country")
	if err != nil {
		t.Fatalf("Domain failed: %v", err)
	}
	if !reflect.DeepEqual(domain, []string{"US", "IN"}) {
		t.Errorf("Unexpected domain: %v", domain)
	}
}

func TestResetRestoresSnapshot(t *testing.T) {
	s := loadedSession(t)
	snapshot, _ := s.Snapshot()
	original := snapshot.Rows()

	s.ApplyFilter(FilterSpec{Column: "Country", Values: []string{"IN"}})
	s.ApplyFilter(FilterSpec{Column: "Industry", Values: []string{"Retail"}})

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.State() != StateUnfiltered {
		t.Errorf("Expected unfiltered state, got %s", s.State())
	}
	if !reflect.DeepEqual(mustView(t, s).Rows(), original) {
		t.Error("Reset did not restore the snapshot rows")
	}
	if !reflect.DeepEqual(snapshot.Rows(), original) {
		t.Error("Snapshot was mutated by filtering")
	}
	if len(s.Filters()) != 0 {
		t.Errorf("Expected filters cleared, got %v", s.Filters())
	}
}

func TestResetWithoutDataset(t *testing.T) {
	s := newSession("test")
	if err := s.Reset(); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Expected ErrNoDataset, got %v", err)
	}
}
