package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/inspect"
	"github.com/ayusman/gearcount/internal/plugin"
	"github.com/ayusman/gearcount/internal/store"
)

// recorder decides which reports are persisted and when hooks fire.
// A successful result is stored when its tooth or anomaly count differs from
// the last stored one, or when RecordInterval has passed since then.
// Only successful results move the anomaly state, so a frame without a gear
// between two anomalous ones does not fire the anomaly hook again.
type recorder struct {
	mu            sync.Mutex
	recorded      bool
	last          *store.Inspection
	lastAt        time.Time
	lastTeeth     int
	lastAnomalies int
	anomalous     bool

	hooks sync.WaitGroup
}

func (r *recorder) due(report *inspect.Report, interval time.Duration) bool {
	if report.Result.Outcome != gear.OutcomeOK {
		return false
	}
	if !r.recorded {
		return true
	}
	if report.ToothCount != r.lastTeeth || report.AnomalyCount != r.lastAnomalies {
		return true
	}
	return report.Timestamp.Sub(r.lastAt) >= interval
}

func (r *recorder) observe(a *App, report *inspect.Report, still bool) {
	if report.Result.Outcome != gear.OutcomeOK {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	source := store.SourceCamera
	if still {
		source = store.SourceStill
	}
	in := store.NewInspection(source, report.Settings, report.Result)
	in.CreatedAt = report.Timestamp

	stored := false
	if a.config.Store != nil && r.due(report, a.config.RecordInterval) {
		if err := a.config.Store.Inspections().Create(in); err != nil {
			log.Printf("Failed to record inspection: %v", err)
		} else {
			stored = true
			r.recorded = true
			r.last = in
			r.lastAt = report.Timestamp
			r.lastTeeth, r.lastAnomalies = report.ToothCount, report.AnomalyCount
			r.dispatch(a, plugin.EventRecorded, in)
		}
	}

	if !report.Result.HasAnomalies() {
		r.anomalous = false
		return
	}
	if r.anomalous {
		return
	}

	// the anomaly hook gets an inspection that exists in the store
	switch {
	case stored, a.config.Store == nil:
	case r.last != nil && r.lastTeeth == report.ToothCount && r.lastAnomalies == report.AnomalyCount:
		in = r.last
	default:
		// not persisted; retry on the next frame
		return
	}

	r.anomalous = true
	log.Printf("Anomaly: %d of %d teeth", report.AnomalyCount, report.ToothCount)
	r.dispatch(a, plugin.EventAnomaly, in)
}

// dispatch runs the event's subscribers in the background.
func (r *recorder) dispatch(a *App, event string, in *store.Inspection) {
	plugins := a.pluginMgr.Subscribers(event)
	if len(plugins) == 0 {
		return
	}

	r.hooks.Add(1)
	go func() {
		defer r.hooks.Done()
		a.pluginExec.Dispatch(context.Background(), plugins, event, in)
	}()
}

// wait blocks until every dispatched hook returned.
func (r *recorder) wait() {
	r.hooks.Wait()
}
