package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/capture"
	"github.com/ayusman/gearcount/internal/inspect"
)

// runPipeline is the inspection loop. Every tick it reads one frame from the
// current source and inspects it. Motion switches the loop between IdleFPS
// and ActiveFPS; after IdleTimeoutMs without motion it drops back to idle.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activeMode := false
	lastMotionTime := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	setRate := func(fps int) {
		a.Camera().SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			if moved, _ := a.motion.Detect(frame); moved {
				lastMotionTime = time.Now()
				if !activeMode {
					activeMode = true
					setRate(ActiveFPS)
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
				activeMode = false
				setRate(IdleFPS)
				log.Println("Switched to idle mode")
			}

			if _, err := a.ProcessFrame(frame); err != nil {
				log.Printf("Error inspecting frame: %v", err)
			}
			frame.Close()
		}
	}
}

// ProcessFrame inspects one frame with the current settings, then publishes,
// records and dispatches hooks for the report. The frame stays owned by the
// caller.
func (a *App) ProcessFrame(frame *gocv.Mat) (*inspect.Report, error) {
	if frame == nil || frame.Empty() {
		return nil, inspect.ErrEmptyFrame
	}

	a.mu.RLock()
	inspector, s := a.inspector, a.settings
	_, still := a.camera.(*capture.StillSource)
	a.mu.RUnlock()

	a.frameMu.Lock()
	inspect.CopyBGR(*frame, &a.lastFrame)
	a.hasFrame = !a.lastFrame.Empty()
	a.frameMu.Unlock()

	report, err := inspector.Inspect(frame, s)
	if err != nil {
		return nil, err
	}

	a.publish(report)
	a.rec.observe(a, report, still)
	return report, nil
}
