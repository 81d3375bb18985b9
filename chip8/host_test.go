package chip8

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/timing"
	"github.com/valerio/go-chip8/chip8/video"
)

// mockBackend returns one scripted batch of events per Update call.
type mockBackend struct {
	mu          sync.Mutex
	script      [][]backend.InputEvent
	config      backend.BackendConfig
	initErr     error
	updateErr   error
	initialized bool
	cleanedUp   bool
	updateCalls int
	lastFrame   video.Frame
	debugData   *debug.CompleteDebugData
	// quitAfter requests a quit through the config callback once reached, when positive
	quitAfter int
}

var _ backend.Backend = (*mockBackend)(nil)

func (m *mockBackend) Init(config backend.BackendConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
	m.initialized = true
	return m.initErr
}

func (m *mockBackend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	m.mu.Lock()
	m.updateCalls++
	call := m.updateCalls
	m.lastFrame = *frame
	provider := m.config.DebugProvider
	onQuit := m.config.Callbacks.OnQuit
	m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if provider != nil {
		data := provider.ExtractDebugData()
		m.mu.Lock()
		m.debugData = data
		m.mu.Unlock()
	}
	if m.quitAfter > 0 && call >= m.quitAfter {
		onQuit()
		return nil, nil
	}
	if call <= len(m.script) {
		return m.script[call-1], nil
	}
	return nil, nil
}

func (m *mockBackend) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanedUp = true
	return nil
}

func (m *mockBackend) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCalls
}

// handlerBackend also handles actions itself.
type handlerBackend struct {
	mockBackend
	handled []action.Action
}

func (h *handlerBackend) HandleAction(act action.Action) {
	h.handled = append(h.handled, act)
}

func press(act action.Action) backend.InputEvent {
	return backend.InputEvent{Action: act, Type: event.Press}
}

func release(act action.Action) backend.InputEvent {
	return backend.InputEvent{Action: act, Type: event.Release}
}

var quitEvents = []backend.InputEvent{press(action.EmulatorQuit)}

// newLockstepHost runs one cycle per refresh.
func newLockstepHost(t *testing.T, b backend.Backend, rom []byte, paused bool) (*Machine, *Host) {
	t.Helper()
	m := New(WithClockFrequency(timing.DisplayRate), WithLimiter(timing.NewNoOpLimiter()))
	require.NoError(t, m.LoadROMStrict(rom))
	h := NewHost(m, b, HostConfig{ROM: rom, Lockstep: true, StartPaused: paused})
	return m, h
}

func runHost(t *testing.T, h *Host) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Run(ctx))
}

// addLoop increments V0 forever.
var addLoop = []byte{0x70, 0x01, 0x12, 0x00}

func TestHost_EventFlow(t *testing.T) {
	tests := []struct {
		name        string
		script      [][]backend.InputEvent
		paused      bool
		wantCalls   int
		wantCycles  uint64
		wantState   State
		wantV0      uint8
		wantRunning bool
	}{
		{
			name:       "quit event stops loop",
			script:     [][]backend.InputEvent{quitEvents},
			wantCalls:  1,
			wantCycles: 1,
			wantState:  StateRunning,
			wantV0:     1,
		},
		{
			name: "pause toggle stops execution",
			script: [][]backend.InputEvent{
				{press(action.EmulatorPauseToggle)},
				nil,
				quitEvents,
			},
			wantCalls:  3,
			wantCycles: 1,
			wantState:  StatePaused,
			wantV0:     1,
		},
		{
			name:   "start paused then resume",
			paused: true,
			script: [][]backend.InputEvent{
				nil,
				{press(action.EmulatorPauseToggle)},
				quitEvents,
			},
			wantCalls:  3,
			wantCycles: 1,
			wantState:  StateRunning,
			wantV0:     1,
		},
		{
			name:   "single step while paused",
			paused: true,
			script: [][]backend.InputEvent{
				{press(action.EmulatorStepInstruction)},
				quitEvents,
			},
			wantCalls:  2,
			wantCycles: 1,
			wantState:  StatePaused,
			wantV0:     1,
		},
		{
			name: "step is ignored while running",
			script: [][]backend.InputEvent{
				{press(action.EmulatorStepInstruction)},
				quitEvents,
			},
			wantCalls:  2,
			wantCycles: 2,
			wantState:  StateRunning,
			wantV0:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{script: tt.script}
			m, h := newLockstepHost(t, b, addLoop, tt.paused)

			runHost(t, h)

			assert.True(t, b.initialized)
			assert.True(t, b.cleanedUp)
			assert.Equal(t, tt.wantCalls, b.updateCalls)
			assert.Equal(t, tt.wantCycles, h.Cycles())
			assert.Equal(t, tt.wantState, m.State())
			assert.Equal(t, tt.wantV0, m.Registers().V[0])
		})
	}
}

func TestHost_KeypadReachesMachine(t *testing.T) {
	// LD V0, K; then spin
	rom := []byte{0xF0, 0x0A, 0x12, 0x02}
	b := &mockBackend{script: [][]backend.InputEvent{
		{press(action.Keypad7)},
		{release(action.Keypad7)},
		quitEvents,
	}}
	m, h := newLockstepHost(t, b, rom, false)

	runHost(t, h)

	regs := m.Registers()
	assert.Equal(t, uint8(0x7), regs.V[0])
	assert.Equal(t, uint16(0x202), regs.PC)
}

func TestHost_SpeedControls(t *testing.T) {
	tests := []struct {
		name   string
		hz     int
		action action.Action
		want   int
	}{
		{name: "speed up doubles", hz: 500, action: action.EmulatorSpeedUp, want: 1000},
		{name: "speed down halves", hz: 500, action: action.EmulatorSpeedDown, want: 250},
		{name: "clamped to max", hz: 8000, action: action.EmulatorSpeedUp, want: MaxClockFrequency},
		{name: "clamped to min", hz: 1, action: action.EmulatorSpeedDown, want: MinClockFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(WithClockFrequency(tt.hz), WithLimiter(timing.NewNoOpLimiter()))
			m.LoadROM(addLoop)
			b := &mockBackend{script: [][]backend.InputEvent{{press(tt.action)}, quitEvents}}
			h := NewHost(m, b, HostConfig{Lockstep: true, StartPaused: true})

			runHost(t, h)

			assert.Equal(t, tt.want, m.ClockFrequency())
		})
	}
}

func TestHost_Reset(t *testing.T) {
	rom := []byte{0x70, 0x01, 0x70, 0x01, 0x70, 0x01, 0x70, 0x01}
	b := &mockBackend{script: [][]backend.InputEvent{
		nil,
		{press(action.EmulatorReset)},
		quitEvents,
	}}
	m, h := newLockstepHost(t, b, rom, false)

	runHost(t, h)

	// two cycles, reset, one more cycle
	regs := m.Registers()
	assert.Equal(t, uint16(0x202), regs.PC)
	assert.Equal(t, uint8(1), regs.V[0])
	assert.Equal(t, rom, regs.Memory[0x200:0x208], "ROM is reloaded after reset")
}

func TestHost_FatalConditionIsLogged(t *testing.T) {
	b := &mockBackend{script: [][]backend.InputEvent{nil, quitEvents}}
	m, h := newLockstepHost(t, b, []byte{0xFF, 0xFF}, false)

	runHost(t, h)

	assert.Equal(t, StateHalted, m.State())
	assert.Equal(t, uint64(1), h.Cycles(), "halted machines are not stepped")
	logs := h.Logs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "unknown opcode")

	require.NotNil(t, b.debugData)
	assert.Equal(t, debug.DebuggerHalted, b.debugData.DebuggerState)
	assert.Equal(t, uint16(0x200), b.debugData.Registers.PC)
	assert.Len(t, b.debugData.MemoryWindow, debug.MemoryWindowRows)
}

func TestHost_RendersLatestFrame(t *testing.T) {
	// LD V0, 0; LD I, 0x050; DRW V0, V0, 5; spin
	rom := []byte{0x60, 0x00, 0xA0, 0x50, 0xD0, 0x05, 0x12, 0x06}
	b := &mockBackend{script: [][]backend.InputEvent{nil, nil, quitEvents}}
	m := New(WithClockFrequency(3*timing.DisplayRate), WithLimiter(timing.NewNoOpLimiter()))
	m.LoadROM(rom)
	h := NewHost(m, b, HostConfig{Lockstep: true})

	runHost(t, h)

	frame := h.Frame()
	assert.Equal(t, uint8(1), frame.Pixel(0, 0))
	assert.Equal(t, frame, b.lastFrame)
	assert.Equal(t, m.Frame(), frame)
}

func TestHost_ForwardsActionsToBackend(t *testing.T) {
	b := &handlerBackend{mockBackend: mockBackend{script: [][]backend.InputEvent{
		{press(action.EmulatorDebugToggle), press(action.Keypad1), press(action.DebugLogLevelIncrease)},
		quitEvents,
	}}}
	_, h := newLockstepHost(t, b, addLoop, false)

	runHost(t, h)

	assert.Equal(t, []action.Action{action.EmulatorDebugToggle, action.DebugLogLevelIncrease, action.EmulatorQuit}, b.handled)
}

func TestHost_BackendCallbackQuit(t *testing.T) {
	called := false
	b := &mockBackend{quitAfter: 2}
	m := New(WithLimiter(timing.NewNoOpLimiter()))
	m.LoadROM(addLoop)
	h := NewHost(m, b, HostConfig{
		Lockstep: true,
		Backend: backend.BackendConfig{
			Callbacks: backend.BackendCallbacks{OnQuit: func() { called = true }},
		},
	})

	runHost(t, h)

	assert.True(t, called, "the configured callback still runs")
	assert.Equal(t, 2, b.updateCalls)
}

func TestHost_BackendErrors(t *testing.T) {
	initErr := errors.New("no display")
	m := New()
	h := NewHost(m, &mockBackend{initErr: initErr}, HostConfig{Lockstep: true})
	assert.ErrorIs(t, h.Run(context.Background()), initErr)

	updateErr := errors.New("render failed")
	b := &mockBackend{updateErr: updateErr}
	h = NewHost(New(), b, HostConfig{Lockstep: true})
	assert.ErrorIs(t, h.Run(context.Background()), updateErr)
	assert.True(t, b.cleanedUp)
}

func TestHost_Async(t *testing.T) {
	m := New(WithLimiter(timing.NewNoOpLimiter()))
	m.LoadROM(addLoop)
	b := &mockBackend{quitAfter: 20}
	h := NewHost(m, b, HostConfig{FrameInterval: time.Millisecond})

	runHost(t, h)

	assert.GreaterOrEqual(t, b.calls(), 20)
	assert.Greater(t, h.Cycles(), uint64(0))
	assert.True(t, b.cleanedUp)
}

func TestHost_AsyncCancel(t *testing.T) {
	m := New(WithClockFrequency(1000))
	m.LoadROM(addLoop)
	b := &mockBackend{}
	h := NewHost(m, b, HostConfig{FrameInterval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, b.calls(), 0)
	assert.Greater(t, m.Registers().Cycles, uint64(0))

	// the worker was joined: no cycle runs after Run returned
	cycles := m.Registers().Cycles
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, cycles, m.Registers().Cycles)
}
