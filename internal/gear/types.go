// Package gear implements the geometric analysis of a gear outline: contour
// selection, centroid, radial profiling, tooth counting and anomaly detection.
package gear

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor is an 8-bit RGB triple used both as a pixel sample and a setting.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as "#rrggbb".
func (c RGBColor) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

// ParseHexColor parses "#rrggbb" into an RGBColor.
func ParseHexColor(s string) (RGBColor, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBColor{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGBColor{R: r, G: g, B: b}, nil
}

// Resolution is a frame size in pixels. The zero value means "unspecified".
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the resolution is unspecified.
func (r Resolution) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

func (r Resolution) String() string {
	return fmt.Sprintf("[%d x %d]", r.Width, r.Height)
}

// ParseResolution parses "WxH" (case-insensitive separator).
func ParseResolution(s string) (Resolution, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("invalid resolution %q: want WxH", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid resolution width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid resolution height %q: %w", parts[1], err)
	}
	if w < 0 || h < 0 {
		return Resolution{}, fmt.Errorf("invalid resolution %q: negative size", s)
	}
	return Resolution{Width: w, Height: h}, nil
}

// Contour is a closed polygon boundary as produced by contour tracing.
type Contour []image.Point

// HierarchyEntry links a contour to its neighbours. -1 means none.
type HierarchyEntry struct {
	Next       int
	Previous   int
	FirstChild int
	Parent     int
}

// Hierarchy is aligned by index with a contour set.
type Hierarchy []HierarchyEntry

// RadialProfile holds one distance-to-centroid per contour point.
type RadialProfile []float64

// ToothMask holds one 0/1 entry per contour point and is treated as circular.
type ToothMask []uint8

// ToothMeasurement describes a single detected tooth.
type ToothMeasurement struct {
	Index         int     `json:"index"`
	LowHighIdx    int     `json:"low_high_idx"`
	HighLowIdx    int     `json:"high_low_idx"`
	StartingAngle float64 `json:"starting_angle"`
	EndingAngle   float64 `json:"ending_angle"`
	MinDistance   float64 `json:"min_distance"`
	MaxDistance   float64 `json:"max_distance"`
}

// ToothAnomaly is a bit set of anomaly kinds found on a tooth.
type ToothAnomaly uint8

const (
	AnomalyNone ToothAnomaly = 0
	AnomalyGap  ToothAnomaly = 1 << 1
	AnomalyArc  ToothAnomaly = 1 << 2
)

// Has reports whether every bit of flag is set.
func (a ToothAnomaly) Has(flag ToothAnomaly) bool {
	return flag != AnomalyNone && a&flag == flag
}

func (a ToothAnomaly) String() string {
	if a == AnomalyNone {
		return "none"
	}
	var kinds []string
	if a.Has(AnomalyGap) {
		kinds = append(kinds, "gap")
	}
	if a.Has(AnomalyArc) {
		kinds = append(kinds, "arc")
	}
	return strings.Join(kinds, " ")
}

// MarshalJSON encodes the flag set as a plain number so that slices of
// anomalies are not treated as byte strings.
func (a ToothAnomaly) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(a))), nil
}
