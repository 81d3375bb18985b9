package debug

import (
	"github.com/valerio/go-chip8/chip8/disasm"
)

type DisasmLine struct {
	Address     uint16
	Instruction string
	IsCurrent   bool
}

// CreateDisassembly disassembles maxLines instructions of mem centered on pc.
// Instructions are decoded on pc's alignment, so odd PCs still line up.
func CreateDisassembly(mem []byte, pc uint16, maxLines int) []DisasmLine {
	if len(mem) == 0 || maxLines <= 0 {
		return nil
	}

	start := int(pc) - (maxLines/2)*disasm.InstructionLength
	for start < 0 {
		start += disasm.InstructionLength
	}

	lines := make([]DisasmLine, 0, maxLines)
	for offset := start; offset < len(mem) && len(lines) < maxLines; {
		instruction, length := disasm.DisassembleBytes(mem, offset)
		lines = append(lines, DisasmLine{
			Address:     uint16(offset),
			Instruction: instruction,
			IsCurrent:   offset == int(pc),
		})
		offset += length
	}
	return lines
}
