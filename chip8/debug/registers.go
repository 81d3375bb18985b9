package debug

import (
	"fmt"
	"strings"
)

// Registers is an immutable copy of the machine registers and memory, taken after a cycle.
type Registers struct {
	V      [16]uint8
	I      uint16
	PC     uint16
	SP     int
	Stack  []uint16
	DT     uint8
	ST     uint8
	Opcode uint16
	Cycles uint64
	Memory []byte
}

// Read returns the memory byte at address from the snapshot, zero when out of range.
func (r *Registers) Read(address uint16) byte {
	if int(address) >= len(r.Memory) {
		return 0
	}
	return r.Memory[address]
}

func (r *Registers) String() string {
	var sb strings.Builder
	for i, v := range r.V {
		fmt.Fprintf(&sb, "V%X=%02X ", i, v)
	}
	fmt.Fprintf(&sb, "I=%04X PC=%04X SP=%d DT=%02X ST=%02X", r.I, r.PC, r.SP, r.DT, r.ST)
	return sb.String()
}
