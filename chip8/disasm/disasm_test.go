package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/cpu"
	"github.com/valerio/go-chip8/chip8/memory"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		op   cpu.Opcode
		want string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x0123, "DW $0123"},
		{0x0000, "CLS"},
		{0x012E, "RET"},
		{0x1234, "JP $234"},
		{0x2ABC, "CALL $ABC"},
		{0x3A12, "SE VA, $12"},
		{0x4B34, "SNE VB, $34"},
		{0x5120, "SE V1, V2"},
		{0x5121, "SE V1, V2"},
		{0x600A, "LD V0, $0A"},
		{0x7FFF, "ADD VF, $FF"},
		{0x8120, "LD V1, V2"},
		{0x8121, "OR V1, V2"},
		{0x8122, "AND V1, V2"},
		{0x8123, "XOR V1, V2"},
		{0x8124, "ADD V1, V2"},
		{0x8125, "SUB V1, V2"},
		{0x8126, "SHR V1, V2"},
		{0x8127, "SUBN V1, V2"},
		{0x812E, "SHL V1, V2"},
		{0x8128, "DW $8128"},
		{0x9340, "SNE V3, V4"},
		{0xA250, "LD I, $250"},
		{0xB300, "JP V0, $300"},
		{0xC10F, "RND V1, $0F"},
		{0xD005, "DRW V0, V0, $5"},
		{0xE19E, "SKP V1"},
		{0xE1A1, "SKNP V1"},
		{0xE1A2, "DW $E1A2"},
		{0xF207, "LD V2, DT"},
		{0xF20A, "LD V2, K"},
		{0xF215, "LD DT, V2"},
		{0xF218, "LD ST, V2"},
		{0xF21E, "ADD I, V2"},
		{0xF229, "LD F, V2"},
		{0xF233, "LD B, V2"},
		{0xF255, "LD [I], V2"},
		{0xF265, "LD V2, [I]"},
		{0xF2FF, "DW $F2FF"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Disassemble(tt.op))
		})
	}
}

func TestDisassemble_AgreesWithDecoder(t *testing.T) {
	for word := 0; word <= 0xFFFF; word++ {
		op := cpu.Opcode(word)
		isData := Disassemble(op)[:2] == "DW"
		require.Equal(t, cpu.Decode(op) == nil, isData, "opcode %s", op)
	}
}

func TestDisassembleAt(t *testing.T) {
	mem := memory.New()
	mem.LoadROM([]byte{0x60, 0x0A, 0xA2, 0x50})

	line := DisassembleAt(mem, 0x202)
	assert.Equal(t, uint16(0x202), line.Address)
	assert.Equal(t, cpu.Opcode(0xA250), line.Opcode)
	assert.Equal(t, "LD I, $250", line.Instruction)
	assert.Equal(t, "202: A250  LD I, $250", line.String())
}

func TestProgram(t *testing.T) {
	lines := Program([]byte{0x60, 0x0A, 0x00, 0xE0, 0x12}, memory.ProgramStart)

	require.Len(t, lines, 3)
	assert.Equal(t, "LD V0, $0A", lines[0].Instruction)
	assert.Equal(t, uint16(0x202), lines[1].Address)
	assert.Equal(t, "CLS", lines[1].Instruction)
	assert.Equal(t, "DB $12", lines[2].Instruction)
	assert.Equal(t, uint16(0x204), lines[2].Address)
}
