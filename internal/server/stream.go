package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/gearcount/internal/inspect"
)

// ReportSource publishes inspection reports.
type ReportSource interface {
	Latest() *inspect.Report
	Subscribe() (<-chan *inspect.Report, func())
	View() inspect.View
}

// StreamHandler serves the inspection images as MJPEG.
type StreamHandler struct {
	source ReportSource
	done   <-chan struct{}
}

// NewStreamHandler creates a new StreamHandler. Streams end when done is
// closed; a nil done never ends them.
func NewStreamHandler(source ReportSource, done <-chan struct{}) *StreamHandler {
	return &StreamHandler{source: source, done: done}
}

// ServeHTTP streams one JPEG per report. ?view=output|foreground picks the
// image; without it the app's current view is used.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fixed := r.URL.Query().Get("view")
	view, ok := inspect.ParseView(fixed)
	if !ok {
		http.Error(w, "Unknown view", http.StatusBadRequest)
		return
	}
	pick := func() inspect.View {
		if fixed == "" {
			return h.source.View()
		}
		return view
	}

	reports, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if latest := h.source.Latest(); latest != nil {
		if err := writePart(w, latest.Frame(pick())); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			if err := writePart(w, report.Frame(pick())); err != nil {
				return
			}
		}
	}
}

// writePart writes one multipart JPEG frame and flushes it.
func writePart(w http.ResponseWriter, jpeg []byte) error {
	if len(jpeg) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
