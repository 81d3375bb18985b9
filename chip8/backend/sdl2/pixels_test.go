package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/video"
)

func TestFillPixels(t *testing.T) {
	var frame video.Frame
	frame[0][1] = 1

	buf := make([]byte, pitch*video.FramebufferHeight)
	fillPixels(&frame, buf)

	// off pixel is opaque black
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0x00}, buf[0:4])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf[4:8])
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0x00}, buf[len(buf)-4:])
}

func TestWindowSize(t *testing.T) {
	w, h := windowSize(0)
	assert.Equal(t, int32(display.DefaultWindowWidth), w)
	assert.Equal(t, int32(display.DefaultWindowHeight), h)

	w, h = windowSize(4)
	assert.Equal(t, int32(256), w)
	assert.Equal(t, int32(128), h)
}
