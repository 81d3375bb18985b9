package display

import "github.com/valerio/go-chip8/chip8/video"

// RGBA pixel format constants
const (
	// RGBABytesPerPixel is the number of bytes per pixel in RGBA format
	RGBABytesPerPixel = 4
	// RGBARShift is the bit shift for the red component in RGBA format
	RGBARShift = 24
	// RGBAGShift is the bit shift for the green component in RGBA format
	RGBAGShift = 16
	// RGBABShift is the bit shift for the blue component in RGBA format
	RGBABShift = 8
	// RGBAColorMask is the mask for extracting color components
	RGBAColorMask = 0xFF
)

// Backend scaling and window constants
const (
	// DefaultPixelScale is the default scaling factor for CHIP-8 pixels
	DefaultPixelScale = 10
	// DefaultWindowWidth is the default window width (CHIP-8 width * scale)
	DefaultWindowWidth = video.FramebufferWidth * DefaultPixelScale // 640
	// DefaultWindowHeight is the default window height (CHIP-8 height * scale)
	DefaultWindowHeight = video.FramebufferHeight * DefaultPixelScale // 320
)

// Color mapping constants
const (
	// GrayscaleOn is the RGB value of a lit pixel
	GrayscaleOn = 255
	// GrayscaleOff is the RGB value of an unlit pixel
	GrayscaleOff = 0
	// FullAlpha is the alpha value for fully opaque pixels
	FullAlpha = 255
)

// RGBA splits a packed RGBA color into its components.
func RGBA(color uint32) (r, g, b, a uint8) {
	return uint8(color >> RGBARShift & RGBAColorMask),
		uint8(color >> RGBAGShift & RGBAColorMask),
		uint8(color >> RGBABShift & RGBAColorMask),
		uint8(color & RGBAColorMask)
}
