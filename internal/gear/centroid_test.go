package gear

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCentroid(t *testing.T) {
	tests := []struct {
		name  string
		c     Contour
		want  Point2D
		pixel image.Point
	}{
		{
			name:  "square",
			c:     square(10, 20, 10),
			want:  Point2D{X: 15, Y: 25},
			pixel: image.Pt(15, 25),
		},
		{
			name:  "clockwise square",
			c:     Contour{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
			want:  Point2D{X: 5, Y: 5},
			pixel: image.Pt(5, 5),
		},
		{
			name:  "right triangle",
			c:     Contour{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}},
			want:  Point2D{X: 1, Y: 1},
			pixel: image.Pt(1, 1),
		},
		{
			name:  "rounds to nearest pixel",
			c:     Contour{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}, {X: 0, Y: 5}},
			want:  Point2D{X: 2.5, Y: 2.5},
			pixel: image.Pt(3, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeCentroid(tt.c)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.X, got.Exact.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Exact.Y, 1e-9)
			assert.InDelta(t, tt.want.X, float64(got.Float.X), 1e-4)
			assert.InDelta(t, tt.want.Y, float64(got.Float.Y), 1e-4)
			assert.Equal(t, tt.pixel, got.Pixel)
		})
	}
}

func TestComputeCentroid_Gear(t *testing.T) {
	c := gearOutline(320, 240, 16, 6, 200, 150)

	got, err := ComputeCentroid(c)
	require.NoError(t, err)
	assert.InDelta(t, 320, got.Exact.X, 1)
	assert.InDelta(t, 240, got.Exact.Y, 1)
}

func TestComputeCentroid_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		c    Contour
	}{
		{name: "empty", c: nil},
		{name: "single point", c: Contour{{X: 4, Y: 4}}},
		{name: "two points", c: Contour{{X: 0, Y: 0}, {X: 4, Y: 4}}},
		{name: "collinear", c: Contour{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 2}}},
		{name: "repeated point", c: Contour{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeCentroid(tt.c)
			assert.ErrorIs(t, err, ErrDegenerateContour)
			assert.False(t, math.IsNaN(got.Exact.X) || math.IsNaN(got.Exact.Y))
		})
	}
}
