package sdl2

import (
	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/video"
)

// pitch is the byte length of one texture row.
const pitch = video.FramebufferWidth * display.RGBABytesPerPixel

// fillPixels writes frame into buf in the memory layout of a little-endian
// RGBA8888 texture, that is ABGR byte order.
func fillPixels(frame *video.Frame, buf []byte) {
	for i, pixel := range frame.ToSlice() {
		r, g, b, a := display.RGBA(pixel)
		dst := i * display.RGBABytesPerPixel
		buf[dst] = a
		buf[dst+1] = b
		buf[dst+2] = g
		buf[dst+3] = r
	}
}

// windowSize returns the window dimensions for a pixel scale.
func windowSize(scale int) (int32, int32) {
	if scale <= 0 {
		scale = display.DefaultPixelScale
	}
	return int32(video.FramebufferWidth * scale), int32(video.FramebufferHeight * scale)
}
