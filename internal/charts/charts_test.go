package charts

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
)

const sampleCSV = `Country,Industry,AI Adoption Rate (%),Consumer Trust (%),Constant
US,Media,40,50,1
IN,Finance,60,70,1
US,Retail,50,60,1
DE,Media,70,80,1
`

func load(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return ds
}

func TestBarSumsPerCategory(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindBar, X: "Country", Y: "AI Adoption Rate (%)"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if fig.Title != "AI Adoption Rate (%) by Country" {
		t.Errorf("Unexpected title: %s", fig.Title)
	}
	points := fig.Series[0].Points
	expected := []Point{{"US", 90}, {"IN", 60}, {"DE", 70}}
	if len(points) != len(expected) {
		t.Fatalf("Expected %d bars, got %d", len(expected), len(points))
	}
	for i, p := range points {
		if p != expected[i] {
			t.Errorf("Bar %d: expected %+v, got %+v", i, expected[i], p)
		}
	}
}

func TestLineKeepsRowOrder(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindLine, X: "Country", Y: "Consumer Trust (%)"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fig.Title != "Consumer Trust (%) Over Country" {
		t.Errorf("Unexpected title: %s", fig.Title)
	}
	if got := len(fig.Series[0].Points); got != 4 {
		t.Errorf("Expected 4 points, got %d", got)
	}
}

func TestBuildDefaults(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindPie})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fig.Title != "AI Adoption Rate (%) by Country" {
		t.Errorf("Unexpected default pie title: %s", fig.Title)
	}
}

func TestBuildRejectsWrongColumnKinds(t *testing.T) {
	ds := load(t)

	if _, err := Build(ds, Request{Kind: KindBar, X: "Country", Y: "Industry"}); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("Expected ErrNotNumeric, got %v", err)
	}
	if _, err := Build(ds, Request{Kind: KindPie, Label: "Constant"}); !errors.Is(err, ErrNotCategorical) {
		t.Errorf("Expected ErrNotCategorical, got %v", err)
	}
	if _, err := Build(ds, Request{Kind: KindBar, X: "Region"}); !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}
	if _, err := Build(ds, Request{Kind: "scatter"}); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("Expected ErrUnsupportedKind, got %v", err)
	}
}

func TestHierarchyNeedsTwoColumns(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindSunburst, Path: []string{"Country"}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fig.Warning != InsufficientSelectionWarning {
		t.Errorf("Expected insufficient selection warning, got %q", fig.Warning)
	}
	if fig.Root != nil {
		t.Error("Expected no hierarchy data with a warning")
	}
}

func TestTreemapSumsLevels(t *testing.T) {
	fig, err := Build(load(t), Request{
		Kind:  KindTreemap,
		Path:  []string{"Country", "Industry"},
		Value: "AI Adoption Rate (%)",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if fig.Title != "Treemap: Country > Industry" {
		t.Errorf("Unexpected title: %s", fig.Title)
	}
	if fig.Root.Value != 220 {
		t.Errorf("Expected root total 220, got %v", fig.Root.Value)
	}
	us := fig.Root.Children[0]
	if us.Label != "US" || us.Value != 90 || len(us.Children) != 2 {
		t.Errorf("Unexpected US node: %+v", us)
	}
}

func TestSunburstDefaultPath(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindSunburst})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fig.Title != "Sunburst: Country > Industry" {
		t.Errorf("Unexpected title: %s", fig.Title)
	}
}

func TestHeatmap(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindHeatmap})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	m := fig.Matrix
	if len(m.Columns) != 3 {
		t.Fatalf("Expected 3 numeric columns, got %v", m.Columns)
	}
	// Adoption and trust move together exactly
	if r := m.Values[0][1]; r == nil || math.Abs(*r-1) > 1e-9 {
		t.Errorf("Expected correlation 1, got %v", r)
	}
	// A constant column has no defined correlation
	if m.Values[0][2] != nil {
		t.Errorf("Expected undefined correlation for constant column, got %v", *m.Values[0][2])
	}
}

func TestRenderPNG(t *testing.T) {
	ds := load(t)

	for _, req := range []Request{
		{Kind: KindBar, X: "Country"},
		{Kind: KindPie},
		{Kind: KindLine, X: "Country"},
	} {
		fig, err := Build(ds, req)
		if err != nil {
			t.Fatalf("%s: Build failed: %v", req.Kind, err)
		}
		var buf bytes.Buffer
		if err := RenderPNG(fig, &buf); err != nil {
			t.Fatalf("%s: RenderPNG failed: %v", req.Kind, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
			t.Errorf("%s: output is not a PNG", req.Kind)
		}
	}
}

func TestRenderPNGUnsupported(t *testing.T) {
	fig, err := Build(load(t), Request{Kind: KindHeatmap})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := RenderPNG(fig, &bytes.Buffer{}); !errors.Is(err, ErrNoPNG) {
		t.Errorf("Expected ErrNoPNG, got %v", err)
	}
}

func TestRenderPNGRejectsDegenerateData(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader("Country,Score,Zero\nUS,5,0\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	for _, req := range []Request{
		{Kind: KindLine, X: "Country", Y: "Score"},
		{Kind: KindPie, Label: "Country", Value: "Zero"},
	} {
		fig, err := Build(ds, req)
		if err != nil {
			t.Fatalf("%s: Build failed: %v", req.Kind, err)
		}
		if err := RenderPNG(fig, &bytes.Buffer{}); !errors.Is(err, ErrNotRenderable) {
			t.Errorf("%s: expected ErrNotRenderable, got %v", req.Kind, err)
		}
	}
}
