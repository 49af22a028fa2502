package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

const (
	manifestFile = "plugin.json"
	configFile   = "config.json"
)

// Manager discovers hook plugins in a directory and indexes them by name.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover replaces the known plugins with the subdirectories of the plugin
// directory that hold a valid plugin.json. A missing directory means no
// plugins; broken entries are logged and skipped.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		if info, statErr := os.Stat(m.pluginDir); statErr == nil && !info.IsDir() {
			break
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.pluginDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, manifestFile)); err != nil {
			continue
		}

		p, err := loadPlugin(dir)
		if err != nil {
			log.Printf("Skipping plugin %s: %v", entry.Name(), err)
			continue
		}
		if prev, ok := found[p.Manifest.Name]; ok {
			log.Printf("Skipping plugin %s: name %q already used by %s", entry.Name(), p.Manifest.Name, prev.Path)
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()
	return nil
}

// loadPlugin reads the manifest in dir and the optional config next to it.
// An invalid config.json is ignored.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestFile, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	p := &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}
	if cfg, err := os.ReadFile(filepath.Join(dir, configFile)); err == nil {
		if json.Valid(cfg) {
			p.Config = cfg
		} else {
			log.Printf("Plugin %s: ignoring invalid %s", manifest.Name, configFile)
		}
	}
	return p, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// List returns every discovered plugin sorted by name.
func (m *Manager) List() []*Plugin {
	return m.filter(func(*Plugin) bool { return true })
}

// Subscribers returns the plugins whose manifest lists event, sorted by name.
func (m *Manager) Subscribers(event string) []*Plugin {
	return m.filter(func(p *Plugin) bool { return p.Manifest.Handles(event) })
}

func (m *Manager) filter(keep func(*Plugin) bool) []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.Name < out[j].Manifest.Name })
	return out
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
