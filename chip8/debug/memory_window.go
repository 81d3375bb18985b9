package debug

import (
	"fmt"
	"strings"
)

const (
	// MemoryWindowRows is the amount of words shown around the PC.
	MemoryWindowRows = 10
	// memoryWindowPCRow is the row of the PC, three words precede it.
	memoryWindowPCRow = 3
)

// MemoryRow is a single 16 bit word of the memory window.
type MemoryRow struct {
	Address uint16
	Value   uint16
	IsPC    bool
	Valid   bool
}

// MemoryWindow returns the words around pc, starting three words before it.
// Rows falling outside memory are returned with Valid unset.
func MemoryWindow(mem []byte, pc uint16) []MemoryRow {
	rows := make([]MemoryRow, MemoryWindowRows)
	start := int(pc) - memoryWindowPCRow*2

	for i := range rows {
		address := start + i*2
		if address < 0 || address+1 >= len(mem) {
			continue
		}
		rows[i] = MemoryRow{
			Address: uint16(address),
			Value:   uint16(mem[address])<<8 | uint16(mem[address+1]),
			IsPC:    i == memoryWindowPCRow,
			Valid:   true,
		}
	}
	return rows
}

// FormatMemoryWindow renders rows as a text table, the PC row is marked with an arrow.
func FormatMemoryWindow(rows []MemoryRow) string {
	var sb strings.Builder
	sb.WriteString("|Address| PC | Value |\n")
	sb.WriteString("|=======|====|=======|\n")
	for _, row := range rows {
		if !row.Valid {
			sb.WriteString("| 0x0000|    | 0x0000|\n")
			continue
		}
		marker := "    "
		if row.IsPC {
			marker = " -> "
		}
		fmt.Fprintf(&sb, "| 0x%04X|%s| 0x%04X|\n", row.Address, marker, row.Value)
	}
	sb.WriteString("|=======|====|=======|\n")
	return sb.String()
}
