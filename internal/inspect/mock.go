package inspect

import (
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/settings"
)

// MockInspector returns canned results. Useful where OpenCV frames are
// irrelevant to the test.
type MockInspector struct {
	mu       sync.Mutex
	results  []gear.Result
	err      error
	calls    int
	settings []settings.Settings
}

// NewMockInspector returns a mock that yields results in order and then
// keeps repeating the last one.
func NewMockInspector(results ...gear.Result) *MockInspector {
	return &MockInspector{results: results}
}

// SetError makes every following Inspect call fail with err.
func (m *MockInspector) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SetResults replaces the canned results and rewinds.
func (m *MockInspector) SetResults(results ...gear.Result) {
	m.mu.Lock()
	m.results = results
	m.calls = 0
	m.mu.Unlock()
}

func (m *MockInspector) Inspect(frame *gocv.Mat, s settings.Settings) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = append(m.settings, s)
	if m.err != nil {
		return nil, m.err
	}

	result := gear.Result{Outcome: gear.OutcomeNoContour, ContourIndex: -1}
	if len(m.results) > 0 {
		idx := m.calls
		if idx >= len(m.results) {
			idx = len(m.results) - 1
		}
		result = m.results[idx]
	}
	m.calls++

	report := &Report{
		Timestamp:    time.Now(),
		Settings:     s,
		ToothCount:   result.ToothCount(),
		AnomalyCount: result.AnomalyCount(),
		Result:       result,
		Output:       []byte("output"),
		Foreground:   []byte("foreground"),
	}
	if frame != nil && !frame.Empty() {
		report.Width, report.Height = frame.Cols(), frame.Rows()
	}
	return report, nil
}

// Calls returns how many times Inspect ran.
func (m *MockInspector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.settings)
}

// LastSettings returns the snapshot passed to the latest Inspect call.
func (m *MockInspector) LastSettings() (settings.Settings, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.settings) == 0 {
		return settings.Settings{}, false
	}
	return m.settings[len(m.settings)-1], true
}

func (m *MockInspector) Close() error { return nil }
