package memory

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	// Size is the total addressable memory, 4KB.
	Size = 0x1000
	// FontStart is where the built-in glyphs are copied on reset.
	FontStart uint16 = 0x050
	// ProgramStart is where ROMs are loaded and execution begins.
	ProgramStart uint16 = 0x200
	// MaxROMSize is the largest program that fits between ProgramStart and the end of memory.
	MaxROMSize = Size - int(ProgramStart)

	addressMask = Size - 1
)

// ErrROMTooLarge is returned by LoadROMStrict when a program does not fit in memory.
var ErrROMTooLarge = errors.New("rom does not fit in memory")

// Memory is the flat 4KB address space of the machine.
type Memory struct {
	data [Size]byte
}

// New returns a reset memory, with the font loaded.
func New() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset zeroes the whole address space and reloads the font glyphs.
func (m *Memory) Reset() {
	m.data = [Size]byte{}
	copy(m.data[FontStart:], font[:])
}

// Read returns the byte at address. Addresses wrap at 4KB.
func (m *Memory) Read(address uint16) byte {
	return m.data[address&addressMask]
}

// Write sets the byte at address. Addresses wrap at 4KB.
func (m *Memory) Write(address uint16, value byte) {
	m.data[address&addressMask] = value
}

// ReadWord returns the big-endian 16 bit word starting at address.
func (m *Memory) ReadWord(address uint16) uint16 {
	return uint16(m.Read(address))<<8 | uint16(m.Read(address+1))
}

// LoadROM copies data at ProgramStart, truncating whatever would overflow memory.
// Returns the amount of bytes written.
func (m *Memory) LoadROM(data []byte) int {
	n := copy(m.data[ProgramStart:], data)
	if n < len(data) {
		slog.Warn("ROM truncated to fit memory", "size", len(data), "loaded", n)
	}
	return n
}

// LoadROMStrict copies data at ProgramStart, or loads nothing at all when it does not fit.
func (m *Memory) LoadROMStrict(data []byte) error {
	if len(data) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrROMTooLarge, len(data), MaxROMSize)
	}
	copy(m.data[ProgramStart:], data)
	return nil
}

// Snapshot returns a copy of the whole address space.
func (m *Memory) Snapshot() []byte {
	snapshot := make([]byte, Size)
	copy(snapshot, m.data[:])
	return snapshot
}

// Window returns a copy of at most length bytes starting at start, clipped to the end of memory.
func (m *Memory) Window(start uint16, length int) []byte {
	if int(start) >= Size || length <= 0 {
		return nil
	}
	end := int(start) + length
	if end > Size {
		end = Size
	}
	window := make([]byte, end-int(start))
	copy(window, m.data[start:end])
	return window
}
