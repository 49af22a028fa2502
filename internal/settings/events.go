package settings

import (
	"fmt"

	"github.com/ayusman/gearcount/internal/gear"
)

// Event is a single user-driven change to the settings.
type Event interface {
	apply(Settings) (Settings, error)
	fmt.Stringer
}

// ColorPicked selects a new foreground color, usually sampled from a frame.
type ColorPicked struct {
	Color gear.RGBColor
}

func (e ColorPicked) apply(s Settings) (Settings, error) {
	s.ForegroundColor = e.Color
	return s, nil
}

func (e ColorPicked) String() string { return "color picked " + e.Color.Hex() }

// ToleranceSet changes the color tolerance (0..MaxTolerance).
type ToleranceSet struct {
	Value int
}

func (e ToleranceSet) apply(s Settings) (Settings, error) {
	if e.Value < 0 || e.Value > MaxTolerance {
		return s, fmt.Errorf("%w: tolerance %d outside 0..%d", ErrInvalidEvent, e.Value, MaxTolerance)
	}
	s.Tolerance = e.Value
	return s, nil
}

func (e ToleranceSet) String() string { return fmt.Sprintf("tolerance set to %d", e.Value) }

// CameraSelected switches the capture device.
type CameraSelected struct {
	Index int
}

func (e CameraSelected) apply(s Settings) (Settings, error) {
	if e.Index < 0 {
		return s, fmt.Errorf("%w: camera index %d", ErrInvalidEvent, e.Index)
	}
	s.Camera = e.Index
	return s, nil
}

func (e CameraSelected) String() string { return fmt.Sprintf("camera %d selected", e.Index) }

// ResolutionSet requests a capture resolution. The zero value asks the
// capture layer to pick its default.
type ResolutionSet struct {
	Resolution gear.Resolution
}

func (e ResolutionSet) apply(s Settings) (Settings, error) {
	if e.Resolution.Width < 0 || e.Resolution.Height < 0 {
		return s, fmt.Errorf("%w: resolution %s", ErrInvalidEvent, e.Resolution)
	}
	s.Resolution = e.Resolution
	return s, nil
}

func (e ResolutionSet) String() string { return "resolution set to " + e.Resolution.String() }

// Patch is a partial update as received over the API. Nil fields are left
// untouched.
type Patch struct {
	Camera          *int    `json:"camera,omitempty"`
	Resolution      *string `json:"resolution,omitempty"`
	ForegroundColor *string `json:"foreground_color,omitempty"`
	Tolerance       *int    `json:"tolerance,omitempty"`
}

// Events converts the patch into events. Malformed colors or resolutions are
// reported as ErrInvalidEvent.
func (p Patch) Events() ([]Event, error) {
	var events []Event
	if p.Camera != nil {
		events = append(events, CameraSelected{Index: *p.Camera})
	}
	if p.Resolution != nil {
		res, err := gear.ParseResolution(*p.Resolution)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		events = append(events, ResolutionSet{Resolution: res})
	}
	if p.ForegroundColor != nil {
		c, err := gear.ParseHexColor(*p.ForegroundColor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		events = append(events, ColorPicked{Color: c})
	}
	if p.Tolerance != nil {
		events = append(events, ToleranceSet{Value: *p.Tolerance})
	}
	return events, nil
}
