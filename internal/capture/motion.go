package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	motionBlurKernel = 21
	motionPixelDelta = 25
)

// MotionDetector compares consecutive frames and reports the share of pixels
// that changed. The inspection loop uses it to slow down while the gear is
// standing still.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	previous  gocv.Mat
	primed    bool
}

// NewMotionDetector returns a detector that reports motion when more than
// threshold percent of the pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, previous: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous one and by how many
// percent of its pixels. The first frame only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	current := gocv.NewMat()
	defer current.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &current, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&current)
	}
	gocv.GaussianBlur(current, &current, image.Pt(motionBlurKernel, motionBlurKernel), 0, 0, gocv.BorderDefault)

	defer current.CopyTo(&m.previous)

	if !m.primed || m.previous.Rows() != current.Rows() || m.previous.Cols() != current.Cols() {
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(current, m.previous, &diff)
	gocv.Threshold(diff, &diff, motionPixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	return changed > m.threshold, changed
}

// Reset forgets the previous frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the stored frame. The detector can still be used afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.previous.Empty() {
		m.previous.Close()
		m.previous = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold ignores values <= 0.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	m.threshold = threshold
	m.mu.Unlock()
}
