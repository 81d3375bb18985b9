package disasm

import (
	"fmt"

	"github.com/valerio/go-chip8/chip8/bit"
	"github.com/valerio/go-chip8/chip8/cpu"
)

// InstructionLength is the size of every CHIP-8 instruction.
const InstructionLength = 2

// MemoryReader is the read side of machine memory.
type MemoryReader interface {
	Read(address uint16) byte
}

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Opcode      cpu.Opcode
	Instruction string
}

func (l DisassemblyLine) String() string {
	return fmt.Sprintf("%03X: %04X  %s", l.Address, uint16(l.Opcode), l.Instruction)
}

// DisassembleAt disassembles the instruction at the given address
func DisassembleAt(mem MemoryReader, address uint16) DisassemblyLine {
	op := cpu.Opcode(bit.Combine(mem.Read(address), mem.Read(address+1)))
	return DisassemblyLine{
		Address:     address,
		Opcode:      op,
		Instruction: Disassemble(op),
	}
}

// DisassembleBytes disassembles the instruction at offset of data, a trailing odd byte
// is rendered as data. Returns the instruction and the amount of bytes consumed.
func DisassembleBytes(data []byte, offset int) (string, int) {
	if offset+1 >= len(data) {
		if offset < len(data) {
			return fmt.Sprintf("DB $%02X", data[offset]), 1
		}
		return "", 0
	}
	return Disassemble(cpu.Opcode(bit.Combine(data[offset], data[offset+1]))), InstructionLength
}

// Disassemble returns the mnemonic for op, unknown opcodes are rendered as data words.
func Disassemble(op cpu.Opcode) string {
	x, y := op.X(), op.Y()
	nnn, kk, n := op.NNN(), op.KK(), op.N()

	switch op.Group() {
	case 0x0:
		switch n {
		case 0x0:
			return "CLS"
		case 0xE:
			return "RET"
		}
	case 0x1:
		return fmt.Sprintf("JP $%03X", nnn)
	case 0x2:
		return fmt.Sprintf("CALL $%03X", nnn)
	case 0x3:
		return fmt.Sprintf("SE V%X, $%02X", x, kk)
	case 0x4:
		return fmt.Sprintf("SNE V%X, $%02X", x, kk)
	case 0x5:
		return fmt.Sprintf("SE V%X, V%X", x, y)
	case 0x6:
		return fmt.Sprintf("LD V%X, $%02X", x, kk)
	case 0x7:
		return fmt.Sprintf("ADD V%X, $%02X", x, kk)
	case 0x8:
		if mnemonic, ok := aluMnemonics[n]; ok {
			return fmt.Sprintf("%s V%X, V%X", mnemonic, x, y)
		}
	case 0x9:
		return fmt.Sprintf("SNE V%X, V%X", x, y)
	case 0xA:
		return fmt.Sprintf("LD I, $%03X", nnn)
	case 0xB:
		return fmt.Sprintf("JP V0, $%03X", nnn)
	case 0xC:
		return fmt.Sprintf("RND V%X, $%02X", x, kk)
	case 0xD:
		return fmt.Sprintf("DRW V%X, V%X, $%X", x, y, n)
	case 0xE:
		switch kk {
		case 0x9E:
			return fmt.Sprintf("SKP V%X", x)
		case 0xA1:
			return fmt.Sprintf("SKNP V%X", x)
		}
	case 0xF:
		if format, ok := miscFormats[kk]; ok {
			return fmt.Sprintf(format, x)
		}
	}

	return fmt.Sprintf("DW $%04X", uint16(op))
}

var aluMnemonics = map[uint8]string{
	0x0: "LD",
	0x1: "OR",
	0x2: "AND",
	0x3: "XOR",
	0x4: "ADD",
	0x5: "SUB",
	0x6: "SHR",
	0x7: "SUBN",
	0xE: "SHL",
}

var miscFormats = map[uint8]string{
	0x07: "LD V%X, DT",
	0x0A: "LD V%X, K",
	0x15: "LD DT, V%X",
	0x18: "LD ST, V%X",
	0x1E: "ADD I, V%X",
	0x29: "LD F, V%X",
	0x33: "LD B, V%X",
	0x55: "LD [I], V%X",
	0x65: "LD V%X, [I]",
}

// Program disassembles a whole ROM image, assuming it is loaded at base.
func Program(rom []byte, base uint16) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, len(rom)/InstructionLength+1)
	for offset := 0; offset < len(rom); {
		instruction, length := DisassembleBytes(rom, offset)
		line := DisassemblyLine{
			Address:     base + uint16(offset),
			Instruction: instruction,
		}
		if length == InstructionLength {
			line.Opcode = cpu.Opcode(bit.Combine(rom[offset], rom[offset+1]))
		} else {
			line.Opcode = cpu.Opcode(rom[offset])
		}
		lines = append(lines, line)
		offset += length
	}
	return lines
}
