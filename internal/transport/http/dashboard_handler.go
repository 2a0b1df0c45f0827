package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"mediapulse/internal/charts"
	apierrors "mediapulse/internal/errors"
	"mediapulse/internal/ingest"
	"mediapulse/internal/middleware"
	"mediapulse/internal/services"
	api "mediapulse/pkg/contracts/api/v1"
	"mediapulse/pkg/contracts/domain"
)

const (
	contentTypePNG  = "image/png"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipart framing on top of the file itself
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

// DashboardHandler serves dataset upload and the dashboard views
type DashboardHandler struct {
	service        DashboardServiceInterface
	validator      *middleware.Validator
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, v *middleware.Validator, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	v.RegisterStructValidation(validateDateOrder, api.FilterQuery{})
	return &DashboardHandler{
		service:        service,
		validator:      v,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the dataset routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator("multipart/form-data")).Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.Summary)
		r.Delete("/", h.Delete)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/charts/{view}", h.Chart)
		r.Get("/views/{view}.csv", h.ViewCSV)
		r.Get("/export", h.Export)
	})

	return r
}

// DatasetCtx rejects malformed dataset IDs before they reach the service
func (h *DashboardHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.validator.ValidateStruct(api.DatasetIDParam{ID: chi.URLParam(r, "id")}); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.UploadTooLargeError(h.maxUploadBytes))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	req := api.UploadRequest{Filename: filepath.Base(header.Filename)}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.Upload(r.Context(), req.Filename, file)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if summary.Cached {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/api/datasets/"+summary.ID)
	render.Status(r, status)
	render.JSON(w, r, summary)
}

// Summary handles GET /api/datasets/{id}
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// Delete handles DELETE /api/datasets/{id}
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// Dashboard handles GET /api/datasets/{id}/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	withInsights, err := h.validator.QueryBool(r, "insights", false)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dash, err := h.service.Dashboard(r.Context(), chi.URLParam(r, "id"), sel, withInsights)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, dash)
}

// Chart handles GET /api/datasets/{id}/charts/{view}
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	kind := domain.ViewKind(chi.URLParam(r, "view"))

	var buf bytes.Buffer
	if err := h.service.Chart(r.Context(), chi.URLParam(r, "id"), sel, kind, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ViewCSV handles GET /api/datasets/{id}/views/{view}.csv
func (h *DashboardHandler) ViewCSV(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	kind := domain.ViewKind(chi.URLParam(r, "view"))

	var buf bytes.Buffer
	if err := h.service.ViewCSV(r.Context(), id, sel, kind, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.attachment(w, id, string(kind)+".csv", contentTypeCSV)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Export handles GET /api/datasets/{id}/export
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), id, sel, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.attachment(w, id, "dashboard.xlsx", contentTypeXLSX)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// selection parses and validates the filter query. On failure the problem
// response has been written.
func (h *DashboardHandler) selection(w http.ResponseWriter, r *http.Request) (domain.FilterSelection, bool) {
	q := r.URL.Query()
	query := api.FilterQuery{
		Platform: strings.TrimSpace(q.Get("platform")),
		Start:    strings.TrimSpace(q.Get("start")),
		End:      strings.TrimSpace(q.Get("end")),
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.FilterSelection{}, false
	}

	sel := domain.FilterSelection{Platform: query.Platform}
	// both dates passed calendar_date above
	sel.Start, _ = middleware.ParseDate(query.Start)
	sel.End, _ = middleware.ParseDate(query.End)
	return sel, true
}

func (h *DashboardHandler) attachment(w http.ResponseWriter, id, suffix, contentType string) {
	base := "dataset"
	if name, err := h.service.Filename(id); err == nil && name != "" {
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_"+suffix))
}

// handleServiceError maps domain errors onto problem responses
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var skipped *services.SkippedViewError

	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		err = apierrors.DatasetNotFoundError(chi.URLParam(r, "id"))
	case errors.Is(err, services.ErrViewNotFound):
		err = apierrors.ViewNotFoundError(chi.URLParam(r, "view"), knownViews())
	case errors.As(err, &skipped):
		err = apierrors.ViewSkippedError(string(skipped.Kind), skipped.Missing)
	case errors.Is(err, services.ErrUploadTooLarge):
		err = apierrors.UploadTooLargeError(h.maxUploadBytes)
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		err = apierrors.UnsupportedFormatError(err)
	case errors.Is(err, ingest.ErrParse):
		err = apierrors.UnparseableInputError(err)
	case errors.Is(err, charts.ErrNoData):
		err = apierrors.ErrNoChartData
	}

	h.errorHandler.HandleError(w, r, err)
}

func knownViews() []string {
	known := make([]string, len(domain.ViewKinds))
	for i, k := range domain.ViewKinds {
		known[i] = string(k)
	}
	return known
}

// validateDateOrder rejects an end date before the start date
func validateDateOrder(sl validator.StructLevel) {
	q := sl.Current().Interface().(api.FilterQuery)
	if q.Start == "" || q.End == "" {
		return
	}
	// YYYY-MM-DD orders lexically
	if q.End < q.Start {
		sl.ReportError(q.End, "end", "End", "date_order", "start")
	}
}
