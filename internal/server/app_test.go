package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayusman/gearcount/internal/app"
	"github.com/ayusman/gearcount/internal/capture"
	"github.com/ayusman/gearcount/internal/fixture"
	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/inspect"
)

// newMockApp returns an app driven by a mock inspector; frames are only
// pushed through ProcessFrame.
func newMockApp(t *testing.T, results ...gear.Result) *app.App {
	t.Helper()
	a := app.New(app.Config{PluginDir: t.TempDir(), DataDir: t.TempDir()})
	a.SetInspector(inspect.NewMockInspector(results...))
	a.SetCamera(capture.NewMockCamera(nil, false))
	t.Cleanup(a.Close)
	return a
}

func pushFrame(t *testing.T, a *app.App) {
	t.Helper()
	frame := fixture.Standard().Frame(600, 600)
	defer frame.Close()
	if _, err := a.ProcessFrame(&frame); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
}

func okResult(n int) gear.Result {
	r := gear.Result{Outcome: gear.OutcomeOK}
	for i := 0; i < n; i++ {
		r.Teeth = append(r.Teeth, gear.ToothMeasurement{Index: i + 1})
		r.Anomalies = append(r.Anomalies, gear.AnomalyNone)
	}
	return r
}

func serve(s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthWithApp(t *testing.T) {
	a := newMockApp(t, okResult(20))
	s := New(Config{App: a})

	rec := serve(s, http.MethodGet, "/api/health", "")
	var body map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&body)
	if body["live"] != true || body["enabled"] != true || body["view"] != "output" {
		t.Errorf("unexpected health %v", body)
	}
	if _, ok := body["tooth_count"]; ok {
		t.Error("tooth_count should be absent before the first frame")
	}

	pushFrame(t, a)
	rec = serve(s, http.MethodGet, "/api/health", "")
	body = nil
	json.NewDecoder(rec.Body).Decode(&body)
	if body["tooth_count"] != float64(20) || body["outcome"] != "ok" {
		t.Errorf("unexpected health %v", body)
	}
}

func TestServer_Latest(t *testing.T) {
	a := newMockApp(t, okResult(20))
	s := New(Config{App: a})

	if rec := serve(s, http.MethodGet, "/api/latest", ""); rec.Code != http.StatusNotFound {
		t.Errorf("before first frame: %d, want 404", rec.Code)
	}

	pushFrame(t, a)
	rec := serve(s, http.MethodGet, "/api/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		ToothCount int `json:"tooth_count"`
		Width      int `json:"width"`
		Result     struct {
			Outcome   string `json:"outcome"`
			Anomalies []int  `json:"anomalies"`
		} `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ToothCount != 20 || body.Width != 600 || body.Result.Outcome != "ok" || len(body.Result.Anomalies) != 20 {
		t.Errorf("unexpected latest %+v", body)
	}
}

func TestServer_ProfileNeedsProfile(t *testing.T) {
	a := newMockApp(t, okResult(20))
	s := New(Config{App: a})

	if rec := serve(s, http.MethodGet, "/api/profile.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("before first frame: %d, want 404", rec.Code)
	}

	// mock results carry no profile
	pushFrame(t, a)
	if rec := serve(s, http.MethodGet, "/api/profile.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("without profile: %d, want 404", rec.Code)
	}
}

func TestServer_GrabLiveView(t *testing.T) {
	a := newMockApp(t, okResult(20))
	s := New(Config{App: a})

	if rec := serve(s, http.MethodPost, "/api/grab", ""); rec.Code != http.StatusConflict {
		t.Errorf("grab before first frame: %d, want 409", rec.Code)
	}
	if rec := serve(s, http.MethodGet, "/api/grab", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/grab: %d, want 405", rec.Code)
	}

	pushFrame(t, a)

	rec := serve(s, http.MethodPost, "/api/grab", "")
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "screengrab_") {
		t.Errorf("grab: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, http.MethodPost, "/api/live", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"live":false`) {
		t.Errorf("freeze: %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(s, http.MethodGet, "/api/live", "")
	if !strings.Contains(rec.Body.String(), `"live":false`) {
		t.Errorf("live after freeze: %s", rec.Body.String())
	}
	serve(s, http.MethodPost, "/api/live", "")
	if !a.IsLive() {
		t.Error("second toggle should resume live capture")
	}

	rec = serve(s, http.MethodPut, "/api/view", `{"view":"foreground"}`)
	if rec.Code != http.StatusOK || a.View() != inspect.ViewForeground {
		t.Errorf("set view: %d, view %v", rec.Code, a.View())
	}
	if rec := serve(s, http.MethodPut, "/api/view", `{"view":"xray"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown view: %d, want 400", rec.Code)
	}
}

func TestServer_SettingsThroughApp(t *testing.T) {
	a := newMockApp(t)
	s := New(Config{App: a})

	rec := serve(s, http.MethodPut, "/api/settings", `{"tolerance":40}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/settings: %d %s", rec.Code, rec.Body.String())
	}
	if a.Settings().Tolerance != 40 {
		t.Errorf("app tolerance = %d, want 40", a.Settings().Tolerance)
	}

	rec = serve(s, http.MethodPost, "/api/settings/pick", `{"x":5,"y":5}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("pick before first frame: %d, want 409", rec.Code)
	}
}

func TestStreamHandler_RejectsUnknownView(t *testing.T) {
	a := newMockApp(t)
	rec := serve(NewStreamHandler(a, nil), http.MethodGet, "/api/stream?view=thermal", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec = serve(NewStreamHandler(a, nil), http.MethodPost, "/api/stream", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestWritePart(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := writePart(rec, []byte("JPEG")); err != nil {
		t.Fatalf("writePart() error = %v", err)
	}
	want := "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: 4\r\n\r\nJPEG\r\n"
	if rec.Body.String() != want {
		t.Errorf("part = %q, want %q", rec.Body.String(), want)
	}

	rec = httptest.NewRecorder()
	writePart(rec, nil)
	if rec.Body.Len() != 0 {
		t.Error("empty frames should not be written")
	}
}
