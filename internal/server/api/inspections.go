package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/gearcount/internal/store"
)

// DefaultListLimit caps GET /api/inspections without a limit parameter.
const DefaultListLimit = 50

// InspectionHandler serves the stored inspections.
type InspectionHandler struct {
	store *store.Store
}

// NewInspectionHandler creates an InspectionHandler with the given store.
func NewInspectionHandler(s *store.Store) *InspectionHandler {
	return &InspectionHandler{store: s}
}

type listInspectionsResponse struct {
	Inspections []*store.Inspection `json:"inspections"`
	Total       int                 `json:"total"`
}

// ServeHTTP routes /api/inspections and /api/inspections/{id}.
func (h *InspectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/inspections"), "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/inspections?limit=N, newest first.
func (h *InspectionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	inspections, err := h.store.Inspections().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list inspections")
		return
	}
	total, err := h.store.Inspections().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count inspections")
		return
	}

	if inspections == nil {
		inspections = []*store.Inspection{}
	}
	writeJSON(w, http.StatusOK, listInspectionsResponse{Inspections: inspections, Total: total})
}

func (h *InspectionHandler) get(w http.ResponseWriter, id string) {
	in, err := h.store.Inspections().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Inspection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get inspection")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *InspectionHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Inspections().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Inspection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete inspection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
