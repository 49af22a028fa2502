package capture

import (
	"fmt"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
)

// StillSource serves the same frame over and over. It backs both the
// static-image mode and the frozen view of a live camera.
type StillSource struct {
	mu    sync.Mutex
	path  string
	frame gocv.Mat
	open  bool
	fps   int
}

// NewStillSource returns a source that loads path (JPEG, PNG, ...) on Open.
// EXIF orientation is applied.
func NewStillSource(path string) *StillSource {
	return &StillSource{path: path, fps: DefaultFPS}
}

// NewStillFromMat freezes a copy of frame. The source is already open.
func NewStillFromMat(frame gocv.Mat) *StillSource {
	return &StillSource{frame: frame.Clone(), open: true, fps: DefaultFPS}
}

// LoadImage decodes an image file into a BGR Mat. The caller closes it.
func LoadImage(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("load image %s: %w", path, err)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert image %s: %w", path, err)
	}
	return mat, nil
}

func (s *StillSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}
	if s.path == "" {
		return ErrNoFrames
	}

	mat, err := LoadImage(s.path)
	if err != nil {
		return err
	}
	s.frame = mat
	s.open = true
	return nil
}

func (s *StillSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	return s.frame.Close()
}

func (s *StillSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrCameraNotOpen
	}
	if s.frame.Empty() {
		return nil, ErrNoFrames
	}
	frame := s.frame.Clone()
	return &frame, nil
}

func (s *StillSource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	s.mu.Lock()
	s.fps = fps
	s.mu.Unlock()
}

func (s *StillSource) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// SetResolution is a no-op: a still image keeps its own size.
func (s *StillSource) SetResolution(gear.Resolution) {}

func (s *StillSource) Resolution() gear.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return gear.Resolution{}
	}
	return gear.Resolution{Width: s.frame.Cols(), Height: s.frame.Rows()}
}

func (s *StillSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Path is the file the source was loaded from, empty for frozen frames.
func (s *StillSource) Path() string {
	return s.path
}
