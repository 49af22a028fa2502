// Package tray provides the system tray menu of gearcount.
package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gearcount/internal/inspect"
)

// Controller is the part of the app the menu drives.
type Controller interface {
	SetEnabled(enabled bool)
	ToggleLive() (bool, error)
	CycleView() inspect.View
	Grab() (string, error)
}

// Tray is the system tray application.
type Tray struct {
	ctl        Controller
	onSettings func()
	onQuit     func()
	enabled    bool
	live       bool
	mu         sync.RWMutex

	menuToggle *systray.MenuItem
	menuLive   *systray.MenuItem
	menuView   *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a Tray for ctl, enabled and live.
func New(ctl Controller) *Tray {
	return &Tray{
		ctl:     ctl,
		enabled: true,
		live:    true,
	}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit makes Run return. It is safe to call more than once.
func (t *Tray) Quit() {
	systray.Quit()
}

func enabledTitle(enabled bool) string {
	if enabled {
		return "● Inspecting"
	}
	return "○ Paused"
}

func liveTitle(live bool) string {
	if live {
		return "Freeze frame"
	}
	return "Resume live"
}

func viewTitle(v inspect.View) string {
	return "View: " + v.String()
}

// statusTitle summarizes a report for the disabled status item.
func statusTitle(r *inspect.Report) string {
	if r == nil {
		return "Last: none"
	}
	if !r.Result.HasGear() {
		return "Last: " + r.Result.Outcome.String()
	}
	if r.AnomalyCount > 0 {
		return fmt.Sprintf("Last: %d teeth, %d anomalous", r.ToothCount, r.AnomalyCount)
	}
	return fmt.Sprintf("Last: %d teeth", r.ToothCount)
}

func (t *Tray) onReady() {
	systray.SetTitle("gearcount")
	systray.SetTooltip("Gear tooth counter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(enabledTitle(t.enabled), "Pause or resume inspection")
	t.menuLive = systray.AddMenuItem(liveTitle(t.live), "Freeze the current frame or go back to the camera")
	t.menuView = systray.AddMenuItem(viewTitle(inspect.ViewOutput), "Switch between annotated output and foreground")
	t.mu.Unlock()
	menuGrab := systray.AddMenuItem("Grab frame", "Save the current frame as JPEG")
	systray.AddSeparator()

	t.mu.Lock()
	t.menuLast = systray.AddMenuItem(statusTitle(nil), "Latest inspection")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit gearcount")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuLive.ClickedCh:
				t.handleLive()
			case <-t.menuView.ClickedCh:
				t.handleView()
			case <-menuGrab.ClickedCh:
				t.handleGrab()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func setTitle(item *systray.MenuItem, title string) {
	if item != nil {
		item.SetTitle(title)
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	setTitle(t.menuToggle, enabledTitle(enabled))
	t.mu.Unlock()

	t.ctl.SetEnabled(enabled)
}

func (t *Tray) handleLive() {
	live, err := t.ctl.ToggleLive()
	if err != nil {
		log.Printf("Toggle live: %v", err)
	}

	t.mu.Lock()
	t.live = live
	setTitle(t.menuLive, liveTitle(live))
	t.mu.Unlock()
}

func (t *Tray) handleView() {
	v := t.ctl.CycleView()

	t.mu.RLock()
	setTitle(t.menuView, viewTitle(v))
	t.mu.RUnlock()
}

func (t *Tray) handleGrab() {
	path, err := t.ctl.Grab()
	if err != nil {
		log.Printf("Grab frame: %v", err)
		return
	}
	log.Printf("Grabbed %s", path)
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Watch updates the status item from reports until the channel closes.
func (t *Tray) Watch(reports <-chan *inspect.Report) {
	for r := range reports {
		t.SetLastReport(r)
	}
}

// SetLastReport updates the status item.
func (t *Tray) SetLastReport(r *inspect.Report) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	setTitle(t.menuLast, statusTitle(r))
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// IsLive returns whether the menu shows the live camera.
func (t *Tray) IsLive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

