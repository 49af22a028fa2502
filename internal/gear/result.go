package gear

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Per-frame outcomes that stop the analysis early.
var (
	ErrNoContour         = errors.New("no contour found")
	ErrDegenerateContour = errors.New("degenerate contour")
	ErrNoToothTransition = errors.New("no tooth transition")
	ErrInsufficientTeeth = errors.New("insufficient teeth")
)

// Outcome tags how far the analysis of a frame got.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNoContour
	OutcomeDegenerateContour
	OutcomeNoToothTransition
	OutcomeInsufficientTeeth
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:                "ok",
	OutcomeNoContour:         "no_contour",
	OutcomeDegenerateContour: "degenerate_contour",
	OutcomeNoToothTransition: "no_tooth_transition",
	OutcomeInsufficientTeeth: "insufficient_teeth",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	for o, name := range outcomeNames {
		if name == s {
			return o, true
		}
	}
	return 0, false
}

// MarshalJSON encodes the outcome by name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseOutcome(name)
	if !ok {
		return fmt.Errorf("unknown outcome %q", name)
	}
	*o = parsed
	return nil
}

// Err returns the sentinel error for failed outcomes and nil for OutcomeOK.
func (o Outcome) Err() error {
	switch o {
	case OutcomeNoContour:
		return ErrNoContour
	case OutcomeDegenerateContour:
		return ErrDegenerateContour
	case OutcomeNoToothTransition:
		return ErrNoToothTransition
	case OutcomeInsufficientTeeth:
		return ErrInsufficientTeeth
	}
	return nil
}

// Result is the analysis of one frame. Fields past the failing stage are
// left empty.
type Result struct {
	Outcome      Outcome            `json:"outcome"`
	ContourIndex int                `json:"contour_index"`
	Contour      Contour            `json:"-"`
	Centroid     Centroid           `json:"centroid"`
	Profile      RadialProfile      `json:"-"`
	Mask         ToothMask          `json:"-"`
	Teeth        []ToothMeasurement `json:"teeth"`
	Anomalies    []ToothAnomaly     `json:"anomalies"`
}

// Err is shorthand for r.Outcome.Err().
func (r Result) Err() error {
	return r.Outcome.Err()
}

// HasGear reports whether the frame produced an accepted gear.
func (r Result) HasGear() bool {
	return r.Outcome == OutcomeOK
}

// HasContour reports whether a contour was selected, even if later stages failed.
func (r Result) HasContour() bool {
	return r.ContourIndex >= 0 && len(r.Contour) > 0
}

// ToothCount is the number of measured teeth.
func (r Result) ToothCount() int {
	return len(r.Teeth)
}

// AnomalyCount is the number of teeth carrying at least one anomaly flag.
func (r Result) AnomalyCount() int {
	count := 0
	for _, a := range r.Anomalies {
		if a != AnomalyNone {
			count++
		}
	}
	return count
}

// HasAnomalies reports whether any tooth is flagged.
func (r Result) HasAnomalies() bool {
	return r.AnomalyCount() > 0
}
