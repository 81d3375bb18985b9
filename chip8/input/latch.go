package input

import "sync/atomic"

// Latch holds the single most recently set key and whether it is pressed.
// Only one key is representable at a time, it is not a 16 key bitmask.
// It is written by the host and read by the execution goroutine.
type Latch struct {
	key     atomic.Uint32
	pressed atomic.Bool
}

// SetKey sets the latched key code, it does not change the pressed flag.
// The code is stored as given, codes above 0xF never match a register holding a keypad nibble.
func (l *Latch) SetKey(code uint8) {
	l.key.Store(uint32(code))
}

// SetPressed sets the pressed flag.
func (l *Latch) SetPressed(pressed bool) {
	l.pressed.Store(pressed)
}

// Key returns the latched key code.
func (l *Latch) Key() uint8 {
	return uint8(l.key.Load())
}

// Pressed reports whether the latched key is pressed.
func (l *Latch) Pressed() bool {
	return l.pressed.Load()
}

// Release clears the pressed flag, the key code is kept.
func (l *Latch) Release() {
	l.pressed.Store(false)
}

// Reset clears both key and pressed flag.
func (l *Latch) Reset() {
	l.key.Store(0)
	l.pressed.Store(false)
}
