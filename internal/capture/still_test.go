package capture

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

func writeTestImage(t *testing.T, name string) string {
	t.Helper()

	img := imaging.New(40, 30, color.NRGBA{R: 200, G: 40, B: 10, A: 255})
	path := filepath.Join(t.TempDir(), name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save test image: %v", err)
	}
	return path
}

func TestStillSource_Open(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := NewStillSource(writeTestImage(t, "gear.png"))
	if src.IsOpen() {
		t.Fatal("still source should not be open before Open()")
	}
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if res := src.Resolution(); res.Width != 40 || res.Height != 30 {
		t.Errorf("Resolution() = %s, want [40 x 30]", res)
	}

	for i := 0; i < 3; i++ {
		f, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		// frames are BGR
		px := f.GetVecbAt(10, 10)
		if px[0] != 10 || px[1] != 40 || px[2] != 200 {
			t.Errorf("pixel = %v, want [10 40 200]", px)
		}
		f.Close()
	}
}

func TestStillSource_MissingFile(t *testing.T) {
	src := NewStillSource(filepath.Join(t.TempDir(), "missing.jpg"))
	if err := src.Open(); err == nil {
		t.Error("Open() should fail for a missing file")
	}
	if _, err := src.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestStillSource_FromMat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	live := gocv.NewMatWithSize(20, 30, gocv.MatTypeCV8UC3)
	defer live.Close()
	gocv.Rectangle(&live, image.Rect(0, 0, 30, 20), color.RGBA{R: 255, A: 255}, -1)

	src := NewStillFromMat(live)
	defer src.Close()

	// later changes to the live frame do not leak into the frozen copy
	live.SetTo(gocv.NewScalar(0, 0, 0, 0))

	f, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer f.Close()

	if px := f.GetVecbAt(5, 5); px[2] != 255 {
		t.Errorf("frozen pixel = %v, want red", px)
	}
	if src.Path() != "" {
		t.Errorf("Path() = %q, want empty", src.Path())
	}
}
