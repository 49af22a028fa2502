package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/app"
	"github.com/ayusman/gearcount/internal/fixture"
	"github.com/ayusman/gearcount/internal/store"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantArgs []string
	}{
		{nil, "serve", nil},
		{[]string{"-listen", ":9000"}, "serve", []string{"-listen", ":9000"}},
		{[]string{"analyze", "-image", "g.png"}, "analyze", []string{"-image", "g.png"}},
		{[]string{"version"}, "version", []string{}},
	}
	for _, tt := range tests {
		cmd, args := parseCommand(tt.args)
		if cmd != tt.wantCmd {
			t.Errorf("parseCommand(%v) cmd = %q, want %q", tt.args, cmd, tt.wantCmd)
		}
		if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
			t.Errorf("parseCommand(%v) args = %v, want %v", tt.args, args, tt.wantArgs)
		}
	}
}

func TestParseServeFlags_Defaults(t *testing.T) {
	opts, err := parseServeFlags([]string{"-data", "/tmp/gc"})
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if opts.listen != ":8080" {
		t.Errorf("listen = %q, want :8080", opts.listen)
	}
	if opts.pluginDir != filepath.Join("/tmp/gc", "plugins") {
		t.Errorf("pluginDir = %q", opts.pluginDir)
	}
	if opts.cameraSet {
		t.Error("camera should not count as set")
	}
	if opts.recordInterval != app.DefaultRecordInterval {
		t.Errorf("recordInterval = %v, want %v", opts.recordInterval, app.DefaultRecordInterval)
	}
}

func TestParseServeFlags_Camera(t *testing.T) {
	opts, err := parseServeFlags([]string{"-camera", "0", "-tray"})
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if !opts.cameraSet || opts.camera != 0 {
		t.Errorf("camera = %d set=%v, want 0 set", opts.camera, opts.cameraSet)
	}
	if !opts.tray {
		t.Error("tray should be enabled")
	}

	if _, err := parseServeFlags([]string{"extra"}); err == nil {
		t.Error("expected error for positional arguments")
	}
}

func TestParseAnalyzeFlags(t *testing.T) {
	if _, err := parseAnalyzeFlags(nil); err == nil {
		t.Error("expected error without an image")
	}

	opts, err := parseAnalyzeFlags([]string{"-color", "#787878", "gear.png"})
	if err != nil {
		t.Fatalf("parseAnalyzeFlags() error = %v", err)
	}
	if opts.image != "gear.png" {
		t.Errorf("image = %q, want gear.png", opts.image)
	}

	s, err := opts.settings()
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if s.ForegroundColor.Hex() != "#787878" {
		t.Errorf("color = %s, want #787878", s.ForegroundColor.Hex())
	}

	bad := analyzeOptions{image: "g.png", color: "purple"}
	if _, err := bad.settings(); err == nil {
		t.Error("expected error for a malformed color")
	}
}

func TestBrowserURL(t *testing.T) {
	if got := browserURL(":8080"); got != "http://localhost:8080" {
		t.Errorf("browserURL(:8080) = %q", got)
	}
	if got := browserURL("10.0.0.2:80"); got != "http://10.0.0.2:80" {
		t.Errorf("browserURL(10.0.0.2:80) = %q", got)
	}
}

func TestRunAnalyze(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test")
	}

	dir := t.TempDir()
	img := filepath.Join(dir, "gear.png")
	if err := fixture.Standard().WriteFrame(img, 600, 600); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	out := filepath.Join(dir, "out.jpg")
	profile := filepath.Join(dir, "profile.png")
	db := filepath.Join(dir, "gear.db")

	var buf bytes.Buffer
	err := runAnalyze([]string{
		"-image", img, "-color", "#787878", "-tolerance", "10",
		"-out", out, "-profile", profile, "-db", db,
	}, &buf)
	if err != nil {
		t.Fatalf("runAnalyze() error = %v", err)
	}

	var got struct {
		ID         string `json:"id"`
		Source     string `json:"source"`
		Outcome    string `json:"outcome"`
		ToothCount int    `json:"tooth_count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Outcome != "ok" || got.ToothCount != 16 {
		t.Errorf("outcome = %s teeth = %d, want ok and 16", got.Outcome, got.ToothCount)
	}
	if got.Source != store.SourceAnalyze {
		t.Errorf("source = %q, want %q", got.Source, store.SourceAnalyze)
	}

	for _, path := range []string{out, profile} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", path, err)
		}
	}

	st, err := store.New(db)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()
	stored, err := st.Inspections().GetByID(got.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(stored.Teeth) != 16 {
		t.Errorf("stored %d teeth, want 16", len(stored.Teeth))
	}
}

func TestRunAnalyze_NoGear(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test")
	}

	dir := t.TempDir()
	img := filepath.Join(dir, "blank.png")
	blank := fixture.Blank(100, 100)
	ok := gocv.IMWrite(img, blank)
	blank.Close()
	if !ok {
		t.Fatalf("failed to write %s", img)
	}

	var buf bytes.Buffer
	if err := runAnalyze([]string{"-image", img, "-color", "#787878", "-profile", filepath.Join(dir, "p.png")}, &buf); err != nil {
		t.Fatalf("runAnalyze() error = %v", err)
	}

	var got struct {
		Outcome    string `json:"outcome"`
		ToothCount int    `json:"tooth_count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Outcome == "ok" || got.ToothCount != 0 {
		t.Errorf("outcome = %s teeth = %d, want a failure with no teeth", got.Outcome, got.ToothCount)
	}
}
