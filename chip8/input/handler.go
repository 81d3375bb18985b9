package input

import (
	"sync"
	"time"

	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
)

const (
	// debounceDuration is the minimum time between debounced events
	debounceDuration = 300 * time.Millisecond
)

// Handler debounces emulator actions. Keypad actions and non-press events always pass.
type Handler struct {
	mu             sync.Mutex
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  debounceDuration,
	}
}

// ProcessEvent returns true if the event should be handled, false if it was debounced
func (h *Handler) ProcessEvent(act action.Action, evt event.Type) bool {
	if evt != event.Press || action.GetInfo(act).Category == action.CategoryKeypad {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	if lastTime, exists := h.lastActionTime[act]; exists {
		if now.Sub(lastTime) < h.debounceDelay {
			return false
		}
	}
	h.lastActionTime[act] = now

	return true
}
