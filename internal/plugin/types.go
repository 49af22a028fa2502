// Package plugin discovers and runs external hook programs that react to
// inspection events.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ayusman/gearcount/internal/store"
)

// Events a plugin can subscribe to in its manifest.
const (
	// EventAnomaly fires when a frame turns from anomaly-free to anomalous.
	EventAnomaly = "anomaly"
	// EventRecorded fires after an inspection was written to the store.
	EventRecorded = "recorded"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Handles reports whether the manifest subscribes to event.
func (m Manifest) Handles(event string) bool {
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Validate checks the fields Discover relies on. The executable must live
// inside the plugin directory and every event must be known.
func (m Manifest) Validate() error {
	if m.Name == "" {
		return errors.New("manifest has no name")
	}
	if m.Executable == "" {
		return fmt.Errorf("plugin %s: manifest has no executable", m.Name)
	}
	if filepath.IsAbs(m.Executable) || !filepath.IsLocal(m.Executable) {
		return fmt.Errorf("plugin %s: executable %q is outside the plugin directory", m.Name, m.Executable)
	}
	for _, e := range m.Events {
		if e != EventAnomaly && e != EventRecorded {
			return fmt.Errorf("plugin %s: unknown event %q", m.Name, e)
		}
	}
	return nil
}

// Request is written to the plugin's stdin.
type Request struct {
	Event      string            `json:"event"`
	Inspection *store.Inspection `json:"inspection"`
	Config     json.RawMessage   `json:"config,omitempty"`
}

// Response is read back from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
	// Config is the content of the optional config.json next to the manifest.
	Config json.RawMessage
}
