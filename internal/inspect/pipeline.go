package inspect

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/settings"
)

// Pipeline is the GoCV-backed Inspector. It serializes calls so that its
// session buffers are never used by two frames at once.
type Pipeline struct {
	mu      sync.Mutex
	session *Session
	now     func() time.Time
}

// NewPipeline returns a ready Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{session: NewSession(), now: time.Now}
}

// Inspect implements Inspector.
func (p *Pipeline) Inspect(frame *gocv.Mat, s settings.Settings) (*Report, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	src := p.session.toBGR(*frame)
	mask, foreground := p.session.DetermineForeground(s.ForegroundColor, s.Tolerance, src)

	contours, hierarchy := ExtractContours(mask)
	result := gear.Analyze(contours, hierarchy)

	output := src.Clone()
	defer output.Close()
	RenderResults(&output, result)

	report := &Report{
		Timestamp:    p.now(),
		Settings:     s,
		Width:        src.Cols(),
		Height:       src.Rows(),
		ToothCount:   result.ToothCount(),
		AnomalyCount: result.AnomalyCount(),
		Result:       result,
	}

	var err error
	if report.Output, err = EncodeJPEG(output); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	if report.Foreground, err = EncodeJPEG(foreground); err != nil {
		return nil, fmt.Errorf("encode foreground: %w", err)
	}
	return report, nil
}

// Close releases the session buffers.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Close()
}

// EncodeJPEG encodes img and copies the bytes out of OpenCV's buffer.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
