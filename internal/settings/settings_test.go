package settings

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gearcount/internal/gear"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, 0, s.Camera)
	assert.Equal(t, gear.Resolution{Width: 1920, Height: 1080}, s.Resolution)
	assert.Equal(t, gear.RGBColor{}, s.ForegroundColor)
	assert.Equal(t, 0, s.Tolerance)
	assert.NoError(t, s.Validate())
}

func TestApply(t *testing.T) {
	base := Default()

	tests := []struct {
		name    string
		events  []Event
		want    Settings
		wantErr bool
	}{
		{
			name:   "no events",
			events: nil,
			want:   base,
		},
		{
			name:   "color picked",
			events: []Event{ColorPicked{Color: gear.RGBColor{R: 200, G: 10, B: 30}}},
			want: Settings{
				Camera: 0, Resolution: base.Resolution,
				ForegroundColor: gear.RGBColor{R: 200, G: 10, B: 30},
			},
		},
		{
			name: "events applied in order",
			events: []Event{
				ToleranceSet{Value: 20},
				CameraSelected{Index: 2},
				ToleranceSet{Value: 40},
				ResolutionSet{Resolution: gear.Resolution{Width: 640, Height: 480}},
			},
			want: Settings{Camera: 2, Resolution: gear.Resolution{Width: 640, Height: 480}, Tolerance: 40},
		},
		{
			name:   "zero resolution means default",
			events: []Event{ResolutionSet{}},
			want:   Settings{},
		},
		{
			name:    "tolerance too high",
			events:  []Event{ToleranceSet{Value: 256}},
			wantErr: true,
		},
		{
			name:    "negative tolerance",
			events:  []Event{ToleranceSet{Value: -1}},
			wantErr: true,
		},
		{
			name:    "negative camera",
			events:  []Event{CameraSelected{Index: -3}},
			wantErr: true,
		},
		{
			name:    "negative resolution",
			events:  []Event{ResolutionSet{Resolution: gear.Resolution{Width: -1, Height: 10}}},
			wantErr: true,
		},
		{
			name:    "invalid event discards earlier ones",
			events:  []Event{ToleranceSet{Value: 12}, CameraSelected{Index: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, tt.events...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidEvent)
				assert.Equal(t, base, got)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := Default()
	next, err := Apply(s, ToleranceSet{Value: 30})
	require.NoError(t, err)

	assert.Equal(t, 0, s.Tolerance)
	assert.Equal(t, 30, next.Tolerance)
}

func TestPatch_Events(t *testing.T) {
	camera, tolerance := 1, 25
	res, color := "800x600", "#ff8000"

	events, err := Patch{Camera: &camera, Resolution: &res, ForegroundColor: &color, Tolerance: &tolerance}.Events()
	require.NoError(t, err)

	got, err := Apply(Default(), events...)
	require.NoError(t, err)
	assert.Equal(t, Settings{
		Camera:          1,
		Resolution:      gear.Resolution{Width: 800, Height: 600},
		ForegroundColor: gear.RGBColor{R: 255, G: 128, B: 0},
		Tolerance:       25,
	}, got)
}

func TestPatch_Invalid(t *testing.T) {
	bad := "purple"
	_, err := Patch{ForegroundColor: &bad}.Events()
	assert.ErrorIs(t, err, ErrInvalidEvent)

	badRes := "wide"
	_, err = Patch{Resolution: &badRes}.Events()
	assert.ErrorIs(t, err, ErrInvalidEvent)

	events, err := Patch{}.Events()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestColorRange(t *testing.T) {
	s, err := Apply(Default(), ColorPicked{Color: gear.RGBColor{R: 100, G: 100, B: 100}}, ToleranceSet{Value: 10})
	require.NoError(t, err)

	assert.Equal(t, gear.ColorRange{
		Min: gear.RGBColor{R: 95, G: 95, B: 95},
		Max: gear.RGBColor{R: 105, G: 105, B: 105},
	}, s.ColorRange())
}

// settings is shared by store and plugin, which must build without OpenCV.
func TestPackageDoesNotImportGoCV(t *testing.T) {
	fset := token.NewFileSet()
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			assert.NotContains(t, imp.Path.Value, "gocv.io", "%s imports %s", name, imp.Path.Value)
		}
	}
}
