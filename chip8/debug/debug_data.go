package debug

// DebuggerState represents the current execution state as seen by debug displays
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerHalted
)

func (s DebuggerState) String() string {
	switch s {
	case DebuggerRunning:
		return "running"
	case DebuggerPaused:
		return "paused"
	case DebuggerHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// CompleteDebugData contains all debug information needed by debug displays
type CompleteDebugData struct {
	Registers     *Registers
	MemoryWindow  []MemoryRow
	Disassembly   []DisasmLine
	DebuggerState DebuggerState
	ClockHz       int
}

// Collect builds the debug data for a register snapshot.
func Collect(regs *Registers, state DebuggerState, clockHz, disasmLines int) *CompleteDebugData {
	if regs == nil {
		return &CompleteDebugData{DebuggerState: state, ClockHz: clockHz}
	}
	return &CompleteDebugData{
		Registers:     regs,
		MemoryWindow:  MemoryWindow(regs.Memory, regs.PC),
		Disassembly:   CreateDisassembly(regs.Memory, regs.PC, disasmLines),
		DebuggerState: state,
		ClockHz:       clockHz,
	}
}
