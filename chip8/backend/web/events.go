package web

import (
	"encoding/json"
	"fmt"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
)

// Binary server messages start with their type byte.
const (
	// FrameMessage is followed by the packed 1 bit per pixel frame, 256 bytes.
	FrameMessage byte = 1
)

// Message is a JSON message sent by browsers.
//
//	{"type": "key", "key": 7, "pressed": true}
//	{"type": "action", "action": "pause"}
type Message struct {
	Type    string `json:"type"`
	Key     uint8  `json:"key,omitempty"`
	Pressed bool   `json:"pressed,omitempty"`
	Action  string `json:"action,omitempty"`
}

// StatusMessage is the JSON register dump sent to browsers when debugging.
type StatusMessage struct {
	Type   string    `json:"type"`
	State  string    `json:"state"`
	Hz     int       `json:"hz"`
	V      [16]uint8 `json:"v"`
	I      uint16    `json:"i"`
	PC     uint16    `json:"pc"`
	SP     int       `json:"sp"`
	DT     uint8     `json:"dt"`
	ST     uint8     `json:"st"`
	Cycles uint64    `json:"cycles"`
	Memory string    `json:"memory"`
}

// actionsByName resolves the action names of browser messages.
var actionsByName = func() map[string]action.Action {
	names := make(map[string]action.Action)
	for act := action.EmulatorPauseToggle; act <= action.DebugLogLevelDecrease; act++ {
		names[action.GetInfo(act).Name] = act
	}
	return names
}()

// decodeMessage converts a browser message to an input event.
func decodeMessage(data []byte) (backend.InputEvent, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return backend.InputEvent{}, fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case "key":
		if msg.Key > 0xF {
			return backend.InputEvent{}, fmt.Errorf("invalid key %d", msg.Key)
		}
		evt := event.Release
		if msg.Pressed {
			evt = event.Press
		}
		return backend.InputEvent{Action: action.FromKeyCode(msg.Key), Type: evt}, nil
	case "action":
		act, ok := actionsByName[msg.Action]
		if !ok {
			return backend.InputEvent{}, fmt.Errorf("unknown action %q", msg.Action)
		}
		return backend.InputEvent{Action: act, Type: event.Press}, nil
	default:
		return backend.InputEvent{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func encodeFrame(packed []byte) []byte {
	return append([]byte{FrameMessage}, packed...)
}

func encodeStatus(data *debug.CompleteDebugData) ([]byte, error) {
	regs := data.Registers
	return json.Marshal(StatusMessage{
		Type:   "status",
		State:  data.DebuggerState.String(),
		Hz:     data.ClockHz,
		V:      regs.V,
		I:      regs.I,
		PC:     regs.PC,
		SP:     regs.SP,
		DT:     regs.DT,
		ST:     regs.ST,
		Cycles: regs.Cycles,
		Memory: debug.FormatMemoryWindow(data.MemoryWindow),
	})
}
