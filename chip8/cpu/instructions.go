package cpu

import (
	"github.com/valerio/go-chip8/chip8/bit"
	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/video"
)

// Instruction executes a decoded opcode.
type Instruction func(*CPU, Opcode) error

// Decode returns the instruction for op, or nil if op is not a valid opcode.
func Decode(op Opcode) Instruction {
	switch op.Group() {
	case 0x0:
		return opcodes0[op.N()]
	case 0x8:
		return opcodes8[op.N()]
	case 0xE:
		return opcodesE[op.KK()]
	case 0xF:
		return opcodesF[op.KK()]
	}
	return opcodes[op.Group()]
}

var opcodes = [16]Instruction{
	nil, opcode1NNN, opcode2NNN, opcode3XKK, opcode4XKK, opcode5XY0, opcode6XKK, opcode7XKK,
	nil, opcode9XY0, opcodeANNN, opcodeBNNN, opcodeCXKK, opcodeDXYN, nil, nil,
}

// Group 0 only looks at the low nibble, so 0x0000 is a CLS.
var opcodes0 = [16]Instruction{
	0x0: opcode00E0,
	0xE: opcode00EE,
}

var opcodes8 = [16]Instruction{
	0x0: opcode8XY0,
	0x1: opcode8XY1,
	0x2: opcode8XY2,
	0x3: opcode8XY3,
	0x4: opcode8XY4,
	0x5: opcode8XY5,
	0x6: opcode8XY6,
	0x7: opcode8XY7,
	0xE: opcode8XYE,
}

var opcodesE = map[uint8]Instruction{
	0x9E: opcodeEX9E,
	0xA1: opcodeEXA1,
}

var opcodesF = map[uint8]Instruction{
	0x07: opcodeFX07,
	0x0A: opcodeFX0A,
	0x15: opcodeFX15,
	0x18: opcodeFX18,
	0x1E: opcodeFX1E,
	0x29: opcodeFX29,
	0x33: opcodeFX33,
	0x55: opcodeFX55,
	0x65: opcodeFX65,
}

// CLS
func opcode00E0(c *CPU, _ Opcode) error {
	c.fb.Clear()
	return nil
}

// RET
func opcode00EE(c *CPU, _ Opcode) error {
	address, err := c.pop()
	if err != nil {
		return err
	}
	c.pc = address
	return nil
}

// JP NNN
func opcode1NNN(c *CPU, op Opcode) error {
	c.pc = op.NNN()
	return nil
}

// CALL NNN, the PC already points at the instruction after the call.
func opcode2NNN(c *CPU, op Opcode) error {
	if err := c.push(c.pc); err != nil {
		return err
	}
	c.pc = op.NNN()
	return nil
}

// SE VX, KK
func opcode3XKK(c *CPU, op Opcode) error {
	if c.v[op.X()] == op.KK() {
		c.skip()
	}
	return nil
}

// SNE VX, KK
func opcode4XKK(c *CPU, op Opcode) error {
	if c.v[op.X()] != op.KK() {
		c.skip()
	}
	return nil
}

// SE VX, VY
func opcode5XY0(c *CPU, op Opcode) error {
	if c.v[op.X()] == c.v[op.Y()] {
		c.skip()
	}
	return nil
}

// LD VX, KK
func opcode6XKK(c *CPU, op Opcode) error {
	c.v[op.X()] = op.KK()
	return nil
}

// ADD VX, KK, no carry flag
func opcode7XKK(c *CPU, op Opcode) error {
	c.v[op.X()] += op.KK()
	return nil
}

// LD VX, VY
func opcode8XY0(c *CPU, op Opcode) error {
	c.v[op.X()] = c.v[op.Y()]
	return nil
}

// OR VX, VY
func opcode8XY1(c *CPU, op Opcode) error {
	c.v[op.X()] |= c.v[op.Y()]
	return nil
}

// AND VX, VY
func opcode8XY2(c *CPU, op Opcode) error {
	c.v[op.X()] &= c.v[op.Y()]
	return nil
}

// XOR VX, VY
func opcode8XY3(c *CPU, op Opcode) error {
	c.v[op.X()] ^= c.v[op.Y()]
	return nil
}

// The flag is always written before the result, so with X = F the result wins.

// ADD VX, VY
func opcode8XY4(c *CPU, op Opcode) error {
	x, y := op.X(), op.Y()
	sum, carry := bit.CheckedAdd(c.v[x], c.v[y])
	c.v[0xF] = flag(carry)
	c.v[x] = sum
	return nil
}

// SUB VX, VY, VF is 1 when VX > VY
func opcode8XY5(c *CPU, op Opcode) error {
	x, y := op.X(), op.Y()
	result := c.v[x] - c.v[y]
	c.v[0xF] = flag(c.v[x] > c.v[y])
	c.v[x] = result
	return nil
}

// SHR VX, shifts VX in place and ignores VY
func opcode8XY6(c *CPU, op Opcode) error {
	x := op.X()
	value := c.v[x]
	c.v[0xF] = bit.GetBitValue(0, value)
	c.v[x] = value >> 1
	return nil
}

// SUBN VX, VY, VF is 1 when VY > VX
func opcode8XY7(c *CPU, op Opcode) error {
	x, y := op.X(), op.Y()
	result := c.v[y] - c.v[x]
	c.v[0xF] = flag(c.v[y] > c.v[x])
	c.v[x] = result
	return nil
}

// SHL VX, shifts VX in place and ignores VY
func opcode8XYE(c *CPU, op Opcode) error {
	x := op.X()
	value := c.v[x]
	c.v[0xF] = bit.GetBitValue(7, value)
	c.v[x] = value << 1
	return nil
}

// SNE VX, VY
func opcode9XY0(c *CPU, op Opcode) error {
	if c.v[op.X()] != c.v[op.Y()] {
		c.skip()
	}
	return nil
}

// LD I, NNN
func opcodeANNN(c *CPU, op Opcode) error {
	c.i = op.NNN()
	return nil
}

// JP V0, NNN
func opcodeBNNN(c *CPU, op Opcode) error {
	c.pc = uint16(c.v[0]) + op.NNN()
	return nil
}

// RND VX, KK
func opcodeCXKK(c *CPU, op Opcode) error {
	c.v[op.X()] = c.random() & op.KK()
	return nil
}

// DRW VX, VY, N: XORs an 8xN sprite read from I. Pixels past the right or
// bottom edge are dropped, VF is set when any lit pixel is turned off.
func opcodeDXYN(c *CPU, op Opcode) error {
	x0 := int(c.v[op.X()])
	y0 := int(c.v[op.Y()])
	height := int(op.N())

	collision := false
	for row := 0; row < height; row++ {
		y := y0 + row
		if y >= video.FramebufferHeight {
			break
		}
		sprite := c.mem.Read(c.i + uint16(row))
		for col := 0; col < 8; col++ {
			x := x0 + col
			if x >= video.FramebufferWidth {
				break
			}
			if !bit.IsSet(uint8(7-col), sprite) {
				continue
			}
			if c.fb.Toggle(x, y) {
				collision = true
			}
		}
	}

	c.v[0xF] = flag(collision)
	return nil
}

// SKP VX
func opcodeEX9E(c *CPU, op Opcode) error {
	if c.v[op.X()] == c.keys.Key() {
		c.skip()
	}
	return nil
}

// SKNP VX
func opcodeEXA1(c *CPU, op Opcode) error {
	if c.v[op.X()] != c.keys.Key() {
		c.skip()
	}
	return nil
}

// LD VX, DT
func opcodeFX07(c *CPU, op Opcode) error {
	c.v[op.X()] = c.dt
	return nil
}

// LD VX, K: waits by re-executing itself until a key is pressed.
func opcodeFX0A(c *CPU, op Opcode) error {
	if !c.keys.Pressed() {
		c.pc -= instructionWidth
		return nil
	}
	c.v[op.X()] = c.keys.Key()
	return nil
}

// LD DT, VX
func opcodeFX15(c *CPU, op Opcode) error {
	c.dt = c.v[op.X()]
	return nil
}

// LD ST, VX
func opcodeFX18(c *CPU, op Opcode) error {
	c.st = c.v[op.X()]
	return nil
}

// ADD I, VX, no flag
func opcodeFX1E(c *CPU, op Opcode) error {
	c.i += uint16(c.v[op.X()])
	return nil
}

// LD F, VX
func opcodeFX29(c *CPU, op Opcode) error {
	c.i = memory.FontStart + memory.GlyphHeight*uint16(c.v[op.X()])
	return nil
}

// LD B, VX
func opcodeFX33(c *CPU, op Opcode) error {
	digits := bit.BCD(c.v[op.X()])
	for n, digit := range digits {
		c.mem.Write(c.i+uint16(n), digit)
	}
	return nil
}

// LD [I], VX
func opcodeFX55(c *CPU, op Opcode) error {
	for n := uint8(0); n <= op.X(); n++ {
		c.mem.Write(c.i+uint16(n), c.v[n])
	}
	return nil
}

// LD VX, [I]
func opcodeFX65(c *CPU, op Opcode) error {
	for n := uint8(0); n <= op.X(); n++ {
		c.v[n] = c.mem.Read(c.i + uint16(n))
	}
	return nil
}

func flag(set bool) uint8 {
	if set {
		return 1
	}
	return 0
}
