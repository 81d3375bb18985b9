package render

import "github.com/valerio/go-chip8/chip8/video"

const (
	FullBlock  = '█'
	UpperBlock = '▀'
	LowerBlock = '▄'
	EmptyBlock = ' '
)

// HalfBlock returns the character drawing two vertically stacked pixels in a
// single terminal cell, with the foreground color meaning "lit".
func HalfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return FullBlock
	case top:
		return UpperBlock
	case bottom:
		return LowerBlock
	default:
		return EmptyBlock
	}
}

// Cells converts a frame to rows of half-block characters, two pixel rows per cell row.
func Cells(frame *video.Frame) [video.FramebufferHeight / 2][video.FramebufferWidth]rune {
	var cells [video.FramebufferHeight / 2][video.FramebufferWidth]rune
	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			cells[y/2][x] = HalfBlock(frame.Pixel(x, y) != 0, frame.Pixel(x, y+1) != 0)
		}
	}
	return cells
}
