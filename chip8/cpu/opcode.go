package cpu

import (
	"fmt"

	"github.com/valerio/go-chip8/chip8/bit"
)

// Opcode is a raw 16 bit instruction word, fetched big-endian from memory.
// Field accessors are total: every value decodes, validity is decided by dispatch.
type Opcode uint16

// Group returns the top nibble, the primary dispatch key.
func (o Opcode) Group() uint8 { return bit.Nibble(uint16(o), 0) }

// X returns the second nibble, usually a register index.
func (o Opcode) X() uint8 { return bit.Nibble(uint16(o), 1) }

// Y returns the third nibble, usually a register index.
func (o Opcode) Y() uint8 { return bit.Nibble(uint16(o), 2) }

// N returns the lowest nibble.
func (o Opcode) N() uint8 { return bit.Nibble(uint16(o), 3) }

// NNN returns the low 12 bits, an address.
func (o Opcode) NNN() uint16 { return uint16(o) & 0x0FFF }

// KK returns the low byte, an immediate.
func (o Opcode) KK() uint8 { return bit.Low(uint16(o)) }

func (o Opcode) String() string {
	return fmt.Sprintf("0x%04X", uint16(o))
}
