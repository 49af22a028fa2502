// Package server provides the HTTP front end of gearcount: the JSON API,
// the MJPEG preview, live results over WebSocket and the static UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/gearcount/internal/app"
	"github.com/ayusman/gearcount/internal/inspect"
	"github.com/ayusman/gearcount/internal/report"
	"github.com/ayusman/gearcount/internal/server/api"
	"github.com/ayusman/gearcount/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server is the HTTP server of the gearcount service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time

	mu   sync.Mutex
	http *http.Server

	// done is closed by Shutdown to end long-lived streams.
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		done:   make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers the handlers whose dependencies are configured.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		inspections := api.NewInspectionHandler(s.config.Store)
		s.mux.Handle("/api/inspections", inspections)
		s.mux.Handle("/api/inspections/", inspections)
	}

	if a := s.config.App; a != nil {
		settingsHandler := api.NewSettingsHandler(a)
		s.mux.Handle("/api/settings", settingsHandler)
		s.mux.Handle("/api/settings/", settingsHandler)

		s.mux.Handle("/api/stream", NewStreamHandler(a, s.done))
		s.mux.Handle("/api/results", NewResultsHandler(a, s.done))
		s.mux.HandleFunc("/api/latest", s.handleLatest)
		s.mux.HandleFunc("/api/profile.png", s.handleProfile)
		s.mux.HandleFunc("/api/grab", s.handleGrab)
		s.mux.HandleFunc("/api/live", s.handleLive)
		s.mux.HandleFunc("/api/view", s.handleView)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["enabled"] = a.IsEnabled()
		response["live"] = a.IsLive()
		response["view"] = a.View().String()
		if latest := a.Latest(); latest != nil {
			response["tooth_count"] = latest.ToothCount
			response["outcome"] = latest.Result.Outcome
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// handleLatest returns the most recent report as JSON.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	latest := s.config.App.Latest()
	if latest == nil {
		writeError(w, http.StatusNotFound, "No result yet")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// handleProfile renders the radial profile chart of the latest result.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, ok := s.config.App.Result()
	if !ok {
		writeError(w, http.StatusNotFound, "No result yet")
		return
	}

	p, err := report.ProfilePlot(result)
	if errors.Is(err, report.ErrNoProfile) {
		writeError(w, http.StatusNotFound, "No gear profile in the latest result")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build profile")
		return
	}

	wt, err := p.WriterTo(report.DefaultWidth, report.DefaultHeight, "png")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render profile")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	wt.WriteTo(w)
}

// handleGrab saves the current frame under the data directory.
func (s *Server) handleGrab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path, err := s.config.App.Grab()
	if errors.Is(err, app.ErrNoFrame) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// handleLive toggles between the live camera and the frozen frame.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{"live": s.config.App.IsLive()})
	case http.MethodPost:
		live, err := s.config.App.ToggleLive()
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"live": live})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleView reads or sets the default stream view.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req struct {
			View string `json:"view"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		v, ok := inspect.ParseView(req.View)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown view")
			return
		}
		s.config.App.SetView(v)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"view": s.config.App.View().String()})
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.http = &http.Server{Addr: addr, Handler: s}
	srv := s.http
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown ends open streams and stops a running ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
