package backend

import (
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

// InputEvent is a platform key event translated to an action.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// DebugDataProvider gives backends read access to the latest machine state.
type DebugDataProvider interface {
	ExtractDebugData() *debug.CompleteDebugData
}

// ActionHandler is implemented by backends that handle some actions themselves
// (debug panels, log filters). The host forwards every non-keypad action to it.
type ActionHandler interface {
	HandleAction(act action.Action)
}

// Backend represents a complete emulator platform (rendering + input)
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, SDL window, browser, etc.)
// - Translating platform-specific input events to InputEvents
// - Handling backend-specific features (debug panels, snapshots)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update renders the provided frame and returns the input events received since
	// the previous call. frame is an immutable copy and may be retained.
	Update(frame *video.Frame) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title         string
	Scale         int
	ShowDebug     bool             // Backends may ignore unsupported features
	SnapshotDir   string           // Where F12 snapshots are written, current directory when empty
	Callbacks     BackendCallbacks // Callbacks for backend communication
	DebugProvider DebugDataProvider
}

// BackendCallbacks allows backends to communicate with the emulator
type BackendCallbacks struct {
	// Control callbacks
	OnQuit func() // Backend requests shutdown (e.g., window close)

	// Debug callbacks (optional)
	OnDebugMessage func(message string) // Backend can send debug info to emulator
}
