// Package settings holds the user-tunable segmentation settings and the
// events that change them. A Settings value is an immutable snapshot: every
// change goes through Apply and produces a new value.
package settings

import (
	"errors"
	"fmt"

	"github.com/ayusman/gearcount/internal/gear"
)

// ErrInvalidEvent is returned when an event carries an out-of-range value.
var ErrInvalidEvent = errors.New("invalid settings event")

// ErrOutOfBounds is returned when a color pick lands outside the frame.
var ErrOutOfBounds = errors.New("pick outside frame")

// MaxTolerance is the widest color tolerance accepted.
const MaxTolerance = 255

// Settings is the per-frame input of the inspection pipeline.
type Settings struct {
	Camera          int             `json:"camera"`
	Resolution      gear.Resolution `json:"resolution"`
	ForegroundColor gear.RGBColor   `json:"foreground_color"`
	Tolerance       int             `json:"tolerance"`
}

// Default returns the settings used when nothing has been stored yet.
func Default() Settings {
	return Settings{
		Camera:     0,
		Resolution: gear.Resolution{Width: 1920, Height: 1080},
		Tolerance:  0,
	}
}

// ColorRange is the foreground band selected by these settings.
func (s Settings) ColorRange() gear.ColorRange {
	return gear.DetermineColorRange(s.ForegroundColor, s.Tolerance)
}

// Validate checks every field against the bounds enforced by the events.
func (s Settings) Validate() error {
	if s.Camera < 0 {
		return fmt.Errorf("%w: camera %d", ErrInvalidEvent, s.Camera)
	}
	if s.Resolution.Width < 0 || s.Resolution.Height < 0 {
		return fmt.Errorf("%w: resolution %s", ErrInvalidEvent, s.Resolution)
	}
	if s.Tolerance < 0 || s.Tolerance > MaxTolerance {
		return fmt.Errorf("%w: tolerance %d", ErrInvalidEvent, s.Tolerance)
	}
	return nil
}

func (s Settings) String() string {
	return fmt.Sprintf("camera=%d resolution=%s color=%s tolerance=%d",
		s.Camera, s.Resolution, s.ForegroundColor.Hex(), s.Tolerance)
}

// Apply folds events into s in order. If any event is invalid s is returned
// unchanged together with the error.
func Apply(s Settings, events ...Event) (Settings, error) {
	next := s
	for _, e := range events {
		if e == nil {
			continue
		}
		var err error
		if next, err = e.apply(next); err != nil {
			return s, err
		}
	}
	return next, nil
}
