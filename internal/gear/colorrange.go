package gear

// ColorRange is an inclusive bounding box in RGB space.
type ColorRange struct {
	Min RGBColor `json:"min"`
	Max RGBColor `json:"max"`
}

// Contains reports whether c lies inside the range on all three channels.
func (r ColorRange) Contains(c RGBColor) bool {
	return c.R >= r.Min.R && c.R <= r.Max.R &&
		c.G >= r.Min.G && c.G <= r.Max.G &&
		c.B >= r.Min.B && c.B <= r.Max.B
}

// DetermineColorRange widens the selected color by tolerance/2 on every
// channel, clamped to 0..255.
func DetermineColorRange(selected RGBColor, tolerance int) ColorRange {
	half := tolerance / 2
	lo := func(v uint8) uint8 { return clampChannel(int(v) - half) }
	hi := func(v uint8) uint8 { return clampChannel(int(v) + half) }

	return ColorRange{
		Min: RGBColor{R: lo(selected.R), G: lo(selected.G), B: lo(selected.B)},
		Max: RGBColor{R: hi(selected.R), G: hi(selected.G), B: hi(selected.B)},
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
