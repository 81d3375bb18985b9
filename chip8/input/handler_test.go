package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
)

func TestHandler_Debouncing(t *testing.T) {
	tests := []struct {
		name      string
		action    action.Action
		eventType event.Type
		delay     time.Duration
		expected  bool
	}{
		{"emulator action rapid press - should debounce", action.EmulatorPauseToggle, event.Press, 10 * time.Millisecond, false},
		{"emulator action release - should not debounce", action.EmulatorPauseToggle, event.Release, 10 * time.Millisecond, true},
		{"keypad rapid press - should not debounce", action.Keypad5, event.Press, 10 * time.Millisecond, true},
		{"hold events - never debounced", action.EmulatorSpeedUp, event.Hold, 10 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()

			assert.True(t, h.ProcessEvent(tt.action, tt.eventType), "first event should always be processed")

			time.Sleep(tt.delay)

			assert.Equal(t, tt.expected, h.ProcessEvent(tt.action, tt.eventType))
		})
	}
}

func TestHandler_DebounceExpires(t *testing.T) {
	h := NewHandler()
	h.debounceDelay = 20 * time.Millisecond

	assert.True(t, h.ProcessEvent(action.EmulatorSnapshot, event.Press))
	assert.False(t, h.ProcessEvent(action.EmulatorSnapshot, event.Press))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, h.ProcessEvent(action.EmulatorSnapshot, event.Press))
}

func TestHandler_MultipleActions(t *testing.T) {
	h := NewHandler()

	assert.True(t, h.ProcessEvent(action.EmulatorPauseToggle, event.Press))
	assert.True(t, h.ProcessEvent(action.EmulatorSnapshot, event.Press), "different actions are debounced independently")
	assert.False(t, h.ProcessEvent(action.EmulatorPauseToggle, event.Press))
}
