package render

import (
	"image"
	"image/color"
)

// Framebuffer is a CPU-side pixel buffer the rasterizer draws into.
type Framebuffer struct {
	Width  int
	Height int
	Pix    []Color
	// BG is the clear color.
	BG color.RGBA
}

// NewFramebuffer allocates a buffer of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pix:    make([]Color, width*height),
	}
}

// Resize reallocates the buffer. Contents are discarded.
func (fb *Framebuffer) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	fb.Width = width
	fb.Height = height
	fb.Pix = make([]Color, width*height)
}

// Clear fills the buffer with the background color.
func (fb *Framebuffer) Clear() {
	bg := Color{fb.BG.R, fb.BG.G, fb.BG.B}
	for i := range fb.Pix {
		fb.Pix[i] = bg
	}
}

// SetPixel writes one pixel, ignoring out-of-bounds coordinates.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	fb.Pix[y*fb.Width+x] = c
}

// At reads one pixel. Out-of-bounds reads return the zero color.
func (fb *Framebuffer) At(x, y int) Color {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return Color{}
	}
	return fb.Pix[y*fb.Width+x]
}

// ToImage converts the buffer into an image for display layers.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.Pix[y*fb.Width+x]
			i := img.PixOffset(x, y)
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = 255
		}
	}
	return img
}
