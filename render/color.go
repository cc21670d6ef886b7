package render

// Color is an 8-bit RGB pixel color.
type Color struct {
	R, G, B uint8
}

// RGB builds a Color from components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Scale multiplies the color by a factor, clamping to the displayable range.
func (c Color) Scale(f float64) Color {
	return Color{clamp8(float64(c.R) * f), clamp8(float64(c.G) * f), clamp8(float64(c.B) * f)}
}

// Lerp interpolates between two colors.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		clamp8(float64(c.R) + (float64(o.R)-float64(c.R))*t),
		clamp8(float64(c.G) + (float64(o.G)-float64(c.G))*t),
		clamp8(float64(c.B) + (float64(o.B)-float64(c.B))*t),
	}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
