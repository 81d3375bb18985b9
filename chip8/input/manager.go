package input

import (
	"sync"

	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
)

// KeySink receives keypad state, usually the machine.
type KeySink interface {
	SetKey(code uint8)
	SetKeyPressed(pressed bool)
}

// Manager handles input actions and their associated callbacks
type Manager struct {
	mu       sync.Mutex
	handlers map[action.Action]map[event.Type][]func()
	debounce *Handler
	keys     KeySink
	current  action.Action
	held     bool
}

func NewManager(keys KeySink) *Manager {
	return &Manager{
		handlers: make(map[action.Action]map[event.Type][]func()),
		debounce: NewHandler(),
		keys:     keys,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if !m.debounce.ProcessEvent(act, evt) {
		return
	}

	// keypad, written directly to the input latch
	if code, ok := act.KeyCode(); ok && m.keys != nil {
		m.triggerKey(act, code, evt)
		return
	}

	m.mu.Lock()
	callbacks := append([]func(){}, m.handlers[act][evt]...)
	m.mu.Unlock()

	for _, callback := range callbacks {
		callback()
	}
}

func (m *Manager) triggerKey(act action.Action, code uint8, evt event.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch evt {
	case event.Press, event.Hold:
		// the latch only holds one key, the latest press wins
		m.current = act
		m.held = true
		m.keys.SetKey(code)
		m.keys.SetKeyPressed(true)
	case event.Release:
		if m.held && m.current == act {
			m.held = false
			m.keys.SetKeyPressed(false)
		}
	}
}
