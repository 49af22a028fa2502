package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/gearcount/internal/app"
	"github.com/ayusman/gearcount/internal/settings"
)

// SettingsController owns the live settings.
type SettingsController interface {
	Settings() settings.Settings
	Apply(events ...settings.Event) (settings.Settings, error)
	PickColor(x, y int) (settings.Settings, error)
}

// SettingsHandler serves /api/settings and /api/settings/pick.
type SettingsHandler struct {
	ctl SettingsController
}

// NewSettingsHandler creates a SettingsHandler for ctl.
func NewSettingsHandler(ctl SettingsController) *SettingsHandler {
	return &SettingsHandler{ctl: ctl}
}

type settingsResponse struct {
	Camera          int    `json:"camera"`
	Resolution      string `json:"resolution"`
	ForegroundColor string `json:"foreground_color"`
	Tolerance       int    `json:"tolerance"`
	Min             string `json:"min"`
	Max             string `json:"max"`
}

type pickRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func toSettingsResponse(s settings.Settings) settingsResponse {
	cr := s.ColorRange()
	return settingsResponse{
		Camera:          s.Camera,
		Resolution:      fmt.Sprintf("%dx%d", s.Resolution.Width, s.Resolution.Height),
		ForegroundColor: s.ForegroundColor.Hex(),
		Tolerance:       s.Tolerance,
		Min:             cr.Min.Hex(),
		Max:             cr.Max.Hex(),
	}
}

// ServeHTTP routes between the settings resource and the pick action.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/settings")
	path = strings.Trim(path, "/")

	switch {
	case path == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, toSettingsResponse(h.ctl.Settings()))
	case path == "" && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		h.update(w, r)
	case path == "pick" && r.Method == http.MethodPost:
		h.pick(w, r)
	case path == "" || path == "pick":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// update handles PUT /api/settings with a partial body.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	events, err := patch.Events()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.ctl.Apply(events...)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply settings")
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(s))
}

// pick handles POST /api/settings/pick {x, y}.
func (h *SettingsHandler) pick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	s, err := h.ctl.PickColor(*req.X, *req.Y)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toSettingsResponse(s))
	case errors.Is(err, settings.ErrOutOfBounds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNoFrame):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to pick color")
	}
}
