package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nikhilbhutani/datasource-admin/internal/auth"
	"github.com/nikhilbhutani/datasource-admin/internal/datasource"
	"github.com/nikhilbhutani/datasource-admin/internal/pagination"
)

const maxBodyBytes = 1 << 20

type DataSourceHandler struct {
	svc *datasource.Service
}

func NewDataSourceHandler(svc *datasource.Service) *DataSourceHandler {
	return &DataSourceHandler{svc: svc}
}

func (h *DataSourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req datasource.CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ds, err := h.svc.Create(r.Context(), user.ID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ds)
}

func (h *DataSourceHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseParams(r.URL.Query())
	if err != nil {
		var perr *pagination.ParamError
		if errors.As(err, &perr) {
			writeValidationError(w, []datasource.FieldError{{Field: perr.Field, Message: perr.Message}})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *DataSourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ds, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ds)
}

func (h *DataSourceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ov, err := h.svc.Overview(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ov)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeValidationError(w, []datasource.FieldError{{Field: "id", Message: "must be an integer"}})
		return 0, false
	}
	return id, true
}

// writeServiceError maps datasource errors to responses. Anything unexpected
// is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *datasource.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr.Fields)
	case errors.Is(err, datasource.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Data source not found"})
	default:
		slog.Error("data source request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeValidationError(w http.ResponseWriter, fields []datasource.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":   "validation failed",
		"details": fields,
	})
}
