package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/kartoza/ai-impact-dashboard/internal/catalog"
	"github.com/kartoza/ai-impact-dashboard/internal/charts"
	"github.com/kartoza/ai-impact-dashboard/internal/config"
	"github.com/kartoza/ai-impact-dashboard/internal/dataset"
	"github.com/kartoza/ai-impact-dashboard/internal/httputil"
	"github.com/kartoza/ai-impact-dashboard/internal/loader"
	"github.com/kartoza/ai-impact-dashboard/internal/metrics"
	"github.com/kartoza/ai-impact-dashboard/internal/models"
	"github.com/kartoza/ai-impact-dashboard/internal/session"
)

const (
	maxUploadSize   = 32 << 20
	defaultPageSize = 100
	maxPageSize     = 1000

	exportCSVName    = "filtered_data.csv"
	exportSQLiteName = "filtered_data.sqlite"
)

// Handler provides HTTP API endpoints
type Handler struct {
	store   *session.Store
	catalog *catalog.Catalog
	cfg     config.Config
}

// NewHandler creates a new API handler
func NewHandler(store *session.Store, cat *catalog.Catalog, cfg config.Config) *Handler {
	return &Handler{
		store:   store,
		catalog: cat,
		cfg:     cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")
	r.HandleFunc("/charts", h.handleListChartKinds).Methods("GET")
	r.HandleFunc("/datasets", h.handleListDatasets).Methods("GET")

	// Session lifecycle
	r.HandleFunc("/sessions", h.handleListSessions).Methods("GET")
	r.HandleFunc("/sessions", h.handleCreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.handleGetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.handleDeleteSession).Methods("DELETE")
	r.HandleFunc("/sessions/{id}/upload", h.handleUpload).Methods("POST")
	r.HandleFunc("/sessions/{id}/load", h.handleLoad).Methods("POST")

	// Working view
	r.HandleFunc("/sessions/{id}/summary", h.handleSummary).Methods("GET")
	r.HandleFunc("/sessions/{id}/schema", h.handleSchema).Methods("GET")
	r.HandleFunc("/sessions/{id}/domain/{column}", h.handleDomain).Methods("GET")
	r.HandleFunc("/sessions/{id}/rows", h.handleRows).Methods("GET")
	r.HandleFunc("/sessions/{id}/filter", h.handleFilter).Methods("POST")
	r.HandleFunc("/sessions/{id}/reset", h.handleReset).Methods("POST")

	// Rendering and export
	r.HandleFunc("/sessions/{id}/chart", h.handleChart).Methods("GET")
	r.HandleFunc("/sessions/{id}/chart.png", h.handleChartPNG).Methods("GET")
	r.HandleFunc("/sessions/{id}/export.csv", h.handleExportCSV).Methods("GET")
	r.HandleFunc("/sessions/{id}/export.sqlite", h.handleExportSQLite).Methods("GET")
}

// respondErr maps an error to its HTTP status and sends it
func respondErr(w http.ResponseWriter, err error) {
	var loadErr *loader.LoadError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, catalog.ErrUnknownDataset):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNoDataset):
		status = http.StatusConflict
	case errors.As(err, &loadErr),
		errors.Is(err, dataset.ErrUnknownColumn),
		errors.Is(err, session.ErrNotCategorical),
		errors.Is(err, session.ErrValueNotInDomain),
		errors.Is(err, charts.ErrUnsupportedKind),
		errors.Is(err, charts.ErrNotNumeric),
		errors.Is(err, charts.ErrNotCategorical),
		errors.Is(err, charts.ErrNoNumericColumns),
		errors.Is(err, charts.ErrNoPNG),
		errors.Is(err, charts.ErrNotRenderable):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("Error handling request: %v", err)
	}
	httputil.RespondError(w, status, err.Error())
}

// session looks up the session named in the route
func (h *Handler) session(r *http.Request) (*session.Session, error) {
	return h.store.Get(mux.Vars(r)["id"])
}

// view looks up the session's working view
func (h *Handler) view(r *http.Request) (*dataset.Dataset, error) {
	s, err := h.session(r)
	if err != nil {
		return nil, err
	}
	return s.View()
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version": h.cfg.Version,
		"source":  h.store.Source(),
	}
	httputil.RespondJSON(w, http.StatusOK, info)
}

func (h *Handler) handleListChartKinds(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, charts.Kinds)
}

// handleListDatasets lists the dataset files in the data directory
func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("rescan") == "true" {
		h.catalog.Rescan()
	}
	httputil.RespondJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.store.List())
}

// handleCreateSession starts a session on the default dataset.
// A failed load still creates the session; the response carries the reason.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	httputil.RespondJSON(w, http.StatusCreated, s.Info())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, s.Info())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(mux.Vars(r)["id"]); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload loads a user-supplied CSV from the multipart field "file"
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if err := s.LoadUpload(header.Filename, file); err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, s.Info())
}

// handleLoad switches the session to a catalogued dataset
func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	var req models.LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		httputil.RespondError(w, http.StatusBadRequest, "dataset name is required")
		return
	}

	entry, err := h.catalog.Get(req.Name)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := s.Load(entry.Path()); err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, s.Info())
}

// handleSummary returns the headline metrics and the quick overview
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	view, err := s.View()
	if err != nil {
		respondErr(w, err)
		return
	}

	set := metrics.Compute(view)
	httputil.RespondJSON(w, http.StatusOK, models.SummaryResponse{
		Session:  s.Info(),
		Metrics:  set,
		Warning:  set.Warning(),
		Overview: metrics.ComputeOverview(view),
	})
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view.Schema())
}

// handleDomain lists the filter options for a categorical column
func (h *Handler) handleDomain(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	column := mux.Vars(r)["column"]
	values, err := s.Domain(column)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.DomainResponse{Column: column, Values: values})
}

// handleRows returns a page of the working view
func (h *Handler) handleRows(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	total := view.Nrow()
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	httputil.RespondJSON(w, http.StatusOK, models.RowsResponse{
		Columns: view.Names(),
		Rows:    view.Slice(offset, limit),
		Offset:  offset,
		Total:   total,
	})
}

// handleFilter applies a filter to the working view
func (h *Handler) handleFilter(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	var req models.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applied, err := s.ApplyFilter(session.FilterSpec{Column: req.Column, Values: req.Values})
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.FilterResponse{Applied: applied, Session: s.Info()})
}

// handleReset restores the working view to the loaded snapshot
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := s.Reset(); err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.FilterResponse{Applied: true, Session: s.Info()})
}

// handleChart returns the chart figure as JSON.
// An insufficient hierarchy selection is reported in the figure's warning, not as an error.
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	fig, err := h.figure(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, fig)
}

// handleChartPNG renders bar, line and pie figures server-side
func (h *Handler) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	fig, err := h.figure(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if fig.Warning != "" {
		httputil.RespondError(w, http.StatusBadRequest, fig.Warning)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderPNG(fig, &buf); err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *Handler) figure(r *http.Request) (*charts.Figure, error) {
	view, err := h.view(r)
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	req := charts.Request{
		Kind:  charts.Kind(q.Get("kind")),
		X:     q.Get("x"),
		Y:     q.Get("y"),
		Label: q.Get("label"),
		Value: q.Get("value"),
	}
	if req.Kind == "" {
		req.Kind = charts.KindBar
	}
	if path, ok := q["path"]; ok {
		req.Path = []string{}
		for _, p := range path {
			if p != "" {
				req.Path = append(req.Path, p)
			}
		}
	}
	return charts.Build(view, req)
}

// handleExportCSV downloads the working view as CSV without an index column
func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := view.WriteCSV(&buf); err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportCSVName+`"`)
	w.Write(buf.Bytes())
}

// handleExportSQLite downloads the working view as a SQLite database
func (h *Handler) handleExportSQLite(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	dir, err := os.MkdirTemp("", "dashboard-export-")
	if err != nil {
		respondErr(w, err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, exportSQLiteName)
	if err := view.WriteSQLite(path); err != nil {
		respondErr(w, err)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportSQLiteName+`"`)
	w.Write(data)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	if val := r.URL.Query().Get(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
