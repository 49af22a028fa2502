// Package capture provides the frame sources of the inspection loop: a live
// camera through GoCV, a frozen still image, and a playback mock for tests.
package capture

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
)

// Capture defaults. A zero resolution in the settings falls back to
// DefaultWidth x DefaultHeight.
const (
	DefaultFPS    = 10
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrReadFailed is returned when the device yields no usable frame.
	ErrReadFailed = errors.New("failed to read frame")
	// ErrNoFrames is returned by sources that have nothing (left) to play.
	ErrNoFrames = errors.New("no frames available")
)

// Camera is a source of BGR frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns a new Mat that the caller must close.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	SetResolution(res gear.Resolution)
	Resolution() gear.Resolution
	IsOpen() bool
}

// DefaultResolution returns res, or the capture default when res is zero.
func DefaultResolution(res gear.Resolution) gear.Resolution {
	if res.Width <= 0 || res.Height <= 0 {
		return gear.Resolution{Width: DefaultWidth, Height: DefaultHeight}
	}
	return res
}

// resolutionLadder lists the modes tried, best first, when no resolution is
// requested.
var resolutionLadder = []gear.Resolution{
	{Width: 3840, Height: 2160},
	{Width: 1920, Height: 1080},
	{Width: 1280, Height: 720},
	{Width: 640, Height: 480},
}

// deviceProps is the property surface of an open capture device.
type deviceProps interface {
	Set(prop gocv.VideoCaptureProperties, param float64)
	Get(prop gocv.VideoCaptureProperties) float64
}

// negotiateResolution asks dev for requested and returns the size the
// driver actually delivers. A zero request walks resolutionLadder and keeps
// the first mode the driver accepts unchanged.
func negotiateResolution(dev deviceProps, deviceID int, requested gear.Resolution) gear.Resolution {
	if requested.Width <= 0 || requested.Height <= 0 {
		var actual gear.Resolution
		for _, mode := range resolutionLadder {
			if actual = applyResolution(dev, mode); actual == mode {
				log.Printf("Camera %d: using %s", deviceID, actual)
				return actual
			}
		}
		log.Printf("Camera %d: no preferred mode accepted, driver chose %s", deviceID, actual)
		return DefaultResolution(actual)
	}

	actual := applyResolution(dev, requested)
	if actual.Width <= 0 || actual.Height <= 0 {
		return requested
	}
	if actual != requested {
		log.Printf("Camera %d: requested %s, driver chose %s", deviceID, requested, actual)
	}
	return actual
}

func applyResolution(dev deviceProps, res gear.Resolution) gear.Resolution {
	dev.Set(gocv.VideoCaptureFrameWidth, float64(res.Width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(res.Height))
	return gear.Resolution{
		Width:  int(dev.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(dev.Get(gocv.VideoCaptureFrameHeight)),
	}
}

type videoCamera struct {
	mu        sync.Mutex
	deviceID  int
	capture   *gocv.VideoCapture
	fps       int
	requested gear.Resolution // zero picks the best mode on open
	res       gear.Resolution // delivered size while open
}

// NewCamera returns a Camera for the given device index. It is not opened.
func NewCamera(deviceID int) Camera {
	return &videoCamera{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	c.capture = vc
	c.configure()
	return nil
}

// configure pushes the requested size and rate to the open device and
// remembers the size the driver settled on.
func (c *videoCamera) configure() {
	c.res = negotiateResolution(c.capture, c.deviceID, c.requested)
	c.capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
}

func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", c.deviceID, ErrReadFailed)
	}
	return &mat, nil
}

// SetFPS ignores values <= 0.
func (c *videoCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *videoCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *videoCamera) SetResolution(res gear.Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requested = res
	if c.capture != nil {
		c.configure()
	}
}

// Resolution returns the delivered size while open, otherwise the requested
// one.
func (c *videoCamera) Resolution() gear.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture != nil {
		return c.res
	}
	return DefaultResolution(c.requested)
}

func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
