// Package inspect runs the per-frame image side of gear inspection on top of
// GoCV: color segmentation, contour extraction, geometric analysis through
// package gear, and the annotated overlay.
package inspect

import (
	"errors"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/settings"
)

// ErrEmptyFrame is returned when Inspect is handed no pixels.
var ErrEmptyFrame = errors.New("empty frame")

// Inspector analyzes one frame at a time.
type Inspector interface {
	// Inspect segments and analyzes frame with the given settings snapshot.
	// Per-frame analysis failures are reported in Report.Result, not as errors.
	Inspect(frame *gocv.Mat, s settings.Settings) (*Report, error)

	// Close releases any resources held by the inspector.
	Close() error
}

// Report is the outcome of inspecting a single frame.
type Report struct {
	Timestamp    time.Time         `json:"timestamp"`
	Settings     settings.Settings `json:"settings"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	ToothCount   int               `json:"tooth_count"`
	AnomalyCount int               `json:"anomaly_count"`
	Result       gear.Result       `json:"result"`

	// JPEG encodings of the annotated frame and the segmented foreground.
	Output     []byte `json:"-"`
	Foreground []byte `json:"-"`
}

// Frame returns the JPEG for the given view.
func (r *Report) Frame(v View) []byte {
	if r == nil {
		return nil
	}
	if v == ViewForeground {
		return r.Foreground
	}
	return r.Output
}

// View selects which image is shown to the user.
type View int

const (
	ViewOutput View = iota
	ViewForeground
)

func (v View) String() string {
	if v == ViewForeground {
		return "foreground"
	}
	return "output"
}

// Next cycles output -> foreground -> output.
func (v View) Next() View {
	if v == ViewForeground {
		return ViewOutput
	}
	return ViewForeground
}

// ParseView accepts "output" and "foreground"; anything else is ViewOutput
// and false.
func ParseView(s string) (View, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "output", "processed", "":
		return ViewOutput, true
	case "foreground", "fg":
		return ViewForeground, true
	}
	return ViewOutput, false
}
