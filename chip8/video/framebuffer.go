package video

import "github.com/cespare/xxhash"

const (
	FramebufferWidth  = 64
	FramebufferHeight = 32
)

// Pixel colors in RGBA order, as used by renderers.
const (
	OnColor  uint32 = 0xFFFFFFFF
	OffColor uint32 = 0x000000FF
)

// Frame is an immutable copy of the screen, indexed [y][x], each pixel 0 or 1.
type Frame [FramebufferHeight][FramebufferWidth]uint8

// Pixel returns the pixel at x, y.
func (f *Frame) Pixel(x, y int) uint8 {
	return f[y][x]
}

// Packed returns the frame as 1 bit per pixel, 8 pixels per byte, MSB first.
func (f *Frame) Packed() []byte {
	packed := make([]byte, FramebufferWidth*FramebufferHeight/8)
	for y := 0; y < FramebufferHeight; y++ {
		for x := 0; x < FramebufferWidth; x++ {
			if f[y][x] != 0 {
				idx := (y*FramebufferWidth + x) / 8
				packed[idx] |= 0x80 >> (x % 8)
			}
		}
	}
	return packed
}

// Digest returns a hash of the frame contents, equal frames produce equal digests.
func (f *Frame) Digest() uint64 {
	return xxhash.Sum64(f.Packed())
}

// ToSlice returns the frame as a row-major slice of RGBA colors.
func (f *Frame) ToSlice() []uint32 {
	colors := make([]uint32, FramebufferWidth*FramebufferHeight)
	for y := 0; y < FramebufferHeight; y++ {
		for x := 0; x < FramebufferWidth; x++ {
			color := OffColor
			if f[y][x] != 0 {
				color = OnColor
			}
			colors[y*FramebufferWidth+x] = color
		}
	}
	return colors
}

// IsBlank reports whether every pixel is off.
func (f *Frame) IsBlank() bool {
	for y := range f {
		for x := range f[y] {
			if f[y][x] != 0 {
				return false
			}
		}
	}
	return true
}

// FrameBuffer is the monochrome 64x32 display. Pixels only ever change through XOR.
type FrameBuffer struct {
	pixels Frame
}

// NewFrameBuffer creates a cleared frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Clear turns every pixel off.
func (fb *FrameBuffer) Clear() {
	fb.pixels = Frame{}
}

// GetPixel returns the pixel at x, y.
func (fb *FrameBuffer) GetPixel(x, y int) uint8 {
	return fb.pixels[y][x]
}

// Toggle flips the pixel at x, y and reports whether it was turned off (a collision).
// Coordinates outside the screen are ignored.
func (fb *FrameBuffer) Toggle(x, y int) bool {
	if x < 0 || y < 0 || x >= FramebufferWidth || y >= FramebufferHeight {
		return false
	}
	collision := fb.pixels[y][x] == 1
	fb.pixels[y][x] ^= 1
	return collision
}

// Frame returns a copy of the current screen.
func (fb *FrameBuffer) Frame() Frame {
	return fb.pixels
}
