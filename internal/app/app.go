// Package app wires frame capture, gear inspection, persistence and hooks
// into the running gearcount service.
package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/capture"
	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/inspect"
	"github.com/ayusman/gearcount/internal/plugin"
	"github.com/ayusman/gearcount/internal/settings"
	"github.com/ayusman/gearcount/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while the scene is static.
	IdleFPS = 5
	// ActiveFPS is the frame rate while something moves in front of the camera.
	ActiveFPS = 15
	// IdleTimeoutMs is how long the scene must stay still before going idle.
	IdleTimeoutMs = 2000
	// DefaultRecordInterval bounds how often an unchanged result is stored.
	DefaultRecordInterval = 30 * time.Second
	// PluginTimeoutMs bounds a single hook invocation.
	PluginTimeoutMs = 5000

	subscriberBuffer = 4
	grabLayout       = "screengrab_2006-01-02_150405.jpg"
)

// ErrNoFrame is returned by operations that need a captured frame before
// the first one arrived.
var ErrNoFrame = errors.New("no frame captured yet")

// Config holds configuration options for the application.
type Config struct {
	Store          *store.Store
	PluginDir      string
	DataDir        string
	CameraID       int
	StillImage     string
	MotionThresh   float64
	RecordInterval time.Duration
}

// App runs the inspection loop and holds the state shared with the HTTP and
// tray front ends.
type App struct {
	config     Config
	camera     capture.Camera
	live       capture.Camera // parked live camera while a frame is frozen
	motion     *capture.MotionDetector
	inspector  inspect.Inspector
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	settings   settings.Settings
	enabled    bool
	running    bool
	view       inspect.View
	mu         sync.RWMutex
	stopCh     chan struct{}
	doneCh     chan struct{}

	frameMu   sync.Mutex
	lastFrame gocv.Mat
	hasFrame  bool

	latestMu sync.RWMutex
	latest   *inspect.Report
	subs     map[chan *inspect.Report]struct{}

	rec recorder
}

// New creates an App. Settings are loaded from the store when one is
// configured; the camera is not opened until Start.
func New(config Config) *App {
	if config.MotionThresh <= 0 {
		config.MotionThresh = 1.0 // 1% of the pixels
	}
	if config.RecordInterval <= 0 {
		config.RecordInterval = DefaultRecordInterval
	}

	s := settings.Default()
	s.Camera = config.CameraID
	if config.Store != nil {
		loaded, err := config.Store.Settings().Load()
		if err != nil {
			log.Printf("Failed to load settings, using defaults: %v", err)
		} else {
			s = loaded
		}
	}

	a := &App{
		config:     config,
		motion:     capture.NewMotionDetector(config.MotionThresh),
		inspector:  inspect.NewPipeline(),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(PluginTimeoutMs),
		settings:   s,
		enabled:    true,
		lastFrame:  gocv.NewMat(),
		subs:       make(map[chan *inspect.Report]struct{}),
	}

	if config.StillImage != "" {
		a.camera = capture.NewStillSource(config.StillImage)
	} else {
		a.camera = a.newCamera(s)
	}
	return a
}

func (a *App) newCamera(s settings.Settings) capture.Camera {
	cam := capture.NewCamera(s.Camera)
	cam.SetResolution(s.Resolution)
	return cam
}

// SetEnabled pauses or resumes inspection without closing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether inspection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetInspector replaces the frame inspector. The previous one is closed.
func (a *App) SetInspector(i inspect.Inspector) {
	a.mu.Lock()
	old := a.inspector
	a.inspector = i
	a.mu.Unlock()

	if old != nil && old != i {
		old.Close()
	}
}

// SetCamera replaces the frame source. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
	a.live = nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start opens the frame source and begins the inspection loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.running = true
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Inspection pipeline started")
	return nil
}

// Stop halts the loop and closes the frame sources. The app can be started
// again afterwards. Stopping a stopped app does nothing.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.running = false
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.live != nil {
		a.camera.Close()
		a.camera, a.live = a.live, nil
	}
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	log.Println("Inspection pipeline stopped")
}

// Close stops the app and releases every OpenCV resource it holds.
func (a *App) Close() {
	a.Stop()
	a.rec.wait()

	a.motion.Close()
	a.mu.Lock()
	if a.inspector != nil {
		if err := a.inspector.Close(); err != nil {
			log.Printf("Error closing inspector: %v", err)
		}
	}
	a.mu.Unlock()

	a.frameMu.Lock()
	a.lastFrame.Close()
	a.hasFrame = false
	a.frameMu.Unlock()

	a.latestMu.Lock()
	for ch := range a.subs {
		close(ch)
	}
	a.subs = make(map[chan *inspect.Report]struct{})
	a.latestMu.Unlock()
}

// Settings returns the current settings snapshot.
func (a *App) Settings() settings.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Apply folds events into the current settings, persists the result and
// reconfigures the camera when its index or resolution changed.
func (a *App) Apply(events ...settings.Event) (settings.Settings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := settings.Apply(a.settings, events...)
	if err != nil {
		return a.settings, err
	}
	if next == a.settings {
		return next, nil
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Save(next); err != nil {
			return a.settings, fmt.Errorf("save settings: %w", err)
		}
	}

	prev := a.settings
	a.settings = next
	for _, e := range events {
		log.Printf("Settings: %s", e)
	}

	if a.config.StillImage == "" {
		a.reconfigureCamera(prev, next)
	}
	return next, nil
}

// reconfigureCamera must be called with a.mu held.
func (a *App) reconfigureCamera(prev, next settings.Settings) {
	cam := a.camera
	if a.live != nil {
		cam = a.live
	}

	if prev.Camera != next.Camera {
		replacement := a.newCamera(next)
		if a.running && a.live == nil {
			if err := replacement.Open(); err != nil {
				log.Printf("Failed to open camera %d: %v", next.Camera, err)
				return
			}
			replacement.SetFPS(cam.FPS())
		}
		cam.Close()
		if a.live != nil {
			a.live = replacement
		} else {
			a.camera = replacement
		}
		return
	}

	if prev.Resolution != next.Resolution {
		cam.SetResolution(next.Resolution)
	}
}

// PickColor samples the last captured frame at (x, y) and makes it the new
// foreground color.
func (a *App) PickColor(x, y int) (settings.Settings, error) {
	a.frameMu.Lock()
	if !a.hasFrame {
		a.frameMu.Unlock()
		return a.Settings(), ErrNoFrame
	}
	event, err := inspect.PickColor(a.lastFrame, x, y)
	a.frameMu.Unlock()
	if err != nil {
		return a.Settings(), err
	}
	return a.Apply(event)
}

// ToggleLive freezes the last captured frame, or resumes the live camera if
// a frame is frozen. It returns whether the app is live afterwards.
func (a *App) ToggleLive() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.live != nil {
		a.camera.Close()
		a.camera, a.live = a.live, nil
		if a.running && !a.camera.IsOpen() {
			if err := a.camera.Open(); err != nil {
				return false, err
			}
		}
		log.Println("Resumed live capture")
		return true, nil
	}

	if _, still := a.camera.(*capture.StillSource); still && a.config.StillImage != "" {
		return false, errors.New("running on a still image")
	}

	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if !a.hasFrame {
		return true, ErrNoFrame
	}

	frozen := capture.NewStillFromMat(a.lastFrame)
	frozen.SetFPS(a.camera.FPS())
	a.live, a.camera = a.camera, frozen
	log.Println("Froze current frame")
	return false, nil
}

// IsLive reports whether frames come from a live camera.
func (a *App) IsLive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, still := a.camera.(*capture.StillSource)
	return !still
}

// View returns the image shown to the user.
func (a *App) View() inspect.View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// SetView changes the image shown to the user.
func (a *App) SetView(v inspect.View) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = v
}

// CycleView switches between the annotated output and the foreground.
func (a *App) CycleView() inspect.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = a.view.Next()
	return a.view
}

// Grab writes the last captured frame to DataDir and returns its path.
func (a *App) Grab() (string, error) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if !a.hasFrame {
		return "", ErrNoFrame
	}

	path := filepath.Join(a.config.DataDir, time.Now().Format(grabLayout))
	if !gocv.IMWrite(path, a.lastFrame) {
		return "", fmt.Errorf("failed to write %s", path)
	}
	log.Printf("Saved %s", path)
	return path, nil
}

// Latest returns the most recent report, or nil before the first frame.
func (a *App) Latest() *inspect.Report {
	a.latestMu.RLock()
	defer a.latestMu.RUnlock()
	return a.latest
}

// Subscribe returns a channel that receives every new report and a function
// to unsubscribe. Reports are dropped for subscribers that fall behind.
func (a *App) Subscribe() (<-chan *inspect.Report, func()) {
	ch := make(chan *inspect.Report, subscriberBuffer)

	a.latestMu.Lock()
	a.subs[ch] = struct{}{}
	a.latestMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.latestMu.Lock()
			defer a.latestMu.Unlock()
			if _, ok := a.subs[ch]; ok {
				delete(a.subs, ch)
				close(ch)
			}
		})
	}
}

func (a *App) publish(r *inspect.Report) {
	a.latestMu.Lock()
	defer a.latestMu.Unlock()

	a.latest = r
	for ch := range a.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Camera returns the current frame source.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Result returns the analysis of the latest report.
func (a *App) Result() (gear.Result, bool) {
	r := a.Latest()
	if r == nil {
		return gear.Result{}, false
	}
	return r.Result, true
}
