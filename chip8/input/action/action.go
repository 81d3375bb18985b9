package action

import "fmt"

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// CHIP-8 hex keypad, the value of each action is its key code
	Keypad0 Action = iota
	Keypad1
	Keypad2
	Keypad3
	Keypad4
	Keypad5
	Keypad6
	Keypad7
	Keypad8
	Keypad9
	KeypadA
	KeypadB
	KeypadC
	KeypadD
	KeypadE
	KeypadF

	// Emulator features
	EmulatorPauseToggle
	EmulatorStepInstruction
	EmulatorReset
	EmulatorSpeedUp
	EmulatorSpeedDown
	EmulatorSnapshot
	EmulatorDebugToggle
	EmulatorQuit

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

// Category groups actions by who consumes them.
type Category int

const (
	CategoryKeypad Category = iota
	CategoryEmulator
	CategoryDebug
)

// Info describes an action for logs and help screens.
type Info struct {
	Name        string
	Description string
	Category    Category
}

var infos = map[Action]Info{
	EmulatorPauseToggle:     {"pause", "Pause/resume execution", CategoryEmulator},
	EmulatorStepInstruction: {"step", "Execute a single cycle", CategoryEmulator},
	EmulatorReset:           {"reset", "Reset machine and reload ROM", CategoryEmulator},
	EmulatorSpeedUp:         {"speed_up", "Double the clock frequency", CategoryEmulator},
	EmulatorSpeedDown:       {"speed_down", "Halve the clock frequency", CategoryEmulator},
	EmulatorSnapshot:        {"snapshot", "Save a PNG of the screen", CategoryEmulator},
	EmulatorDebugToggle:     {"debug", "Toggle the debug panels", CategoryDebug},
	EmulatorQuit:            {"quit", "Quit", CategoryEmulator},
	DebugLogLevelIncrease:   {"log_more", "Show more log levels", CategoryDebug},
	DebugLogLevelDecrease:   {"log_less", "Show fewer log levels", CategoryDebug},
}

// GetInfo returns the description of an action.
func GetInfo(act Action) Info {
	if code, ok := act.KeyCode(); ok {
		return Info{
			Name:        fmt.Sprintf("key_%X", code),
			Description: fmt.Sprintf("Keypad %X", code),
			Category:    CategoryKeypad,
		}
	}
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Name: "unknown", Description: fmt.Sprintf("Unknown action %d", act), Category: CategoryEmulator}
}

// KeyCode returns the keypad code of a keypad action.
func (a Action) KeyCode() (uint8, bool) {
	if a >= Keypad0 && a <= KeypadF {
		return uint8(a), true
	}
	return 0, false
}

// FromKeyCode returns the keypad action for a key code 0x0-0xF.
func FromKeyCode(code uint8) Action {
	return Keypad0 + Action(code&0x0F)
}
