package chip8

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/valerio/go-chip8/chip8/cpu"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/rom"
	"github.com/valerio/go-chip8/chip8/timing"
	"github.com/valerio/go-chip8/chip8/video"
)

// State is the execution state reported to hosts.
type State int

const (
	StatePaused State = iota
	StateRunning
	// StateHalted behaves like StatePaused, it is entered after a fatal condition.
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Machine is a complete CHIP-8 system: memory, CPU, framebuffer and keypad latch,
// plus the cycle driver that executes it and notifies listeners.
// All methods are safe for concurrent use. Listeners must not call Step.
type Machine struct {
	// mu guards the machine state, notifyMu serializes cycles and their notifications
	mu       sync.Mutex
	notifyMu sync.Mutex

	mem  *memory.Memory
	cpu  *cpu.CPU
	fb   *video.FrameBuffer
	keys input.Latch

	limiter   timing.Limiter
	listeners []Listener

	running atomic.Bool
	halted  atomic.Bool
	hz      atomic.Int64
	wake    chan struct{}

	cpuOptions []cpu.Option
}

// Option configures a Machine.
type Option func(*Machine)

// WithClockFrequency sets the initial cycles per second, non-positive values are ignored.
func WithClockFrequency(hz int) Option {
	return func(m *Machine) {
		if hz > 0 {
			m.hz.Store(int64(hz))
		}
	}
}

// WithStackDepth bounds the call stack.
func WithStackDepth(depth int) Option {
	return func(m *Machine) {
		m.cpuOptions = append(m.cpuOptions, cpu.WithStackDepth(depth))
	}
}

// WithRandom replaces the random byte source used by CXKK.
func WithRandom(random func() uint8) Option {
	return func(m *Machine) {
		m.cpuOptions = append(m.cpuOptions, cpu.WithRandom(random))
	}
}

// WithLimiter replaces the pacing of Run, the default is an adaptive limiter.
func WithLimiter(limiter timing.Limiter) Option {
	return func(m *Machine) {
		m.limiter = limiter
	}
}

// WithListener subscribes l to the per-cycle notifications.
func WithListener(l Listener) Option {
	return func(m *Machine) {
		m.listeners = append(m.listeners, l)
	}
}

// New returns an initialized, paused machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		mem:  memory.New(),
		fb:   video.NewFrameBuffer(),
		wake: make(chan struct{}, 1),
	}
	m.hz.Store(timing.DefaultFrequency)

	for _, opt := range opts {
		opt(m)
	}

	if m.limiter == nil {
		m.limiter = timing.NewAdaptiveLimiter(m.ClockFrequency())
	} else {
		m.limiter.SetFrequency(m.ClockFrequency())
	}

	m.cpu = cpu.New(m.mem, m.fb, &m.keys, m.cpuOptions...)
	m.Initialize()

	return m
}

// Initialize resets all machine state: memory is zeroed and the font reloaded,
// registers, stack, timers, screen and keypad are cleared and the PC returns to 0x200.
// Running or paused state is not changed.
func (m *Machine) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.mem.Reset()
	m.fb.Clear()
	m.cpu.Reset()
	m.keys.Reset()
	m.halted.Store(false)
}

// AddListener subscribes l to the per-cycle notifications.
func (m *Machine) AddListener(l Listener) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.listeners = append(m.listeners, l)
}

// LoadROM writes data at the program start, truncating what doesn't fit.
// Returns the amount of bytes written.
func (m *Machine) LoadROM(data []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.mem.LoadROM(data)
	slog.Info("ROM loaded", "bytes", n)
	return n
}

// LoadROMStrict writes data at the program start, or nothing if it doesn't fit.
func (m *Machine) LoadROMStrict(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.mem.LoadROMStrict(data); err != nil {
		return err
	}
	slog.Info("ROM loaded", "bytes", len(data))
	return nil
}

// LoadFile initializes the machine and loads the ROM at path, archives are unpacked.
// A ROM that does not fit is rejected and memory is left initialized.
func (m *Machine) LoadFile(path string) error {
	data, err := rom.Load(path)
	if err != nil {
		return err
	}

	if err := m.Reload(data); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Reload initializes the machine and strictly loads data, without a cycle running in between.
func (m *Machine) Reload(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	if err := m.mem.LoadROMStrict(data); err != nil {
		return err
	}
	slog.Info("ROM loaded", "bytes", len(data))
	return nil
}

// Step executes a single cycle, regardless of running/paused state:
// execute one instruction, tick the timers, clear the keypad pressed flag, then
// notify log (fatal conditions only), frame, registers and end of cycle, in order.
// A fatal condition halts the machine and is returned.
func (m *Machine) Step() error {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	err := m.cpu.Exec()
	if err != nil {
		m.running.Store(false)
		m.halted.Store(true)
	} else {
		m.cpu.TickTimers()
	}
	m.keys.Release()

	frame := m.fb.Frame()
	regs := m.registersLocked()
	m.mu.Unlock()

	if err != nil {
		message := err.Error()
		slog.Warn("Machine halted", "error", message, "pc", fmt.Sprintf("0x%04X", regs.PC))
		for _, l := range m.listeners {
			l.OnLog(message)
		}
	}
	for _, l := range m.listeners {
		l.OnFrame(frame)
	}
	for _, l := range m.listeners {
		l.OnRegisters(regs)
	}
	for _, l := range m.listeners {
		l.OnEndOfCycle()
	}

	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}
	return nil
}

// Start switches to continuous execution, clearing a halt.
func (m *Machine) Start() {
	m.halted.Store(false)
	m.running.Store(true)
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Pause stops continuous execution after the current cycle.
func (m *Machine) Pause() {
	m.running.Store(false)
}

// State reports whether the machine is running, paused or halted.
func (m *Machine) State() State {
	switch {
	case m.running.Load():
		return StateRunning
	case m.halted.Load():
		return StateHalted
	default:
		return StatePaused
	}
}

// SetClockFrequency changes the cycles per second of Run, non-positive values are ignored.
func (m *Machine) SetClockFrequency(hz int) {
	if hz <= 0 {
		return
	}
	m.hz.Store(int64(hz))
	m.limiter.SetFrequency(hz)
	slog.Debug("Clock frequency changed", "hz", hz)
}

// ClockFrequency returns the current cycles per second.
func (m *Machine) ClockFrequency() int {
	return int(m.hz.Load())
}

// SetKey latches the key code, without changing the pressed flag.
func (m *Machine) SetKey(code uint8) {
	m.keys.SetKey(code)
}

// SetKeyPressed sets the pressed flag of the latched key.
func (m *Machine) SetKeyPressed(pressed bool) {
	m.keys.SetPressed(pressed)
}

// Run executes cycles while the machine is running, paced by the limiter.
// While paused or halted it blocks until Start is called.
// Run returns ctx.Err() once ctx is done: cancel the context and wait for Run to return to stop it.
func (m *Machine) Run(ctx context.Context) error {
	for {
		if !m.running.Load() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.wake:
				m.limiter.Reset()
			}
			continue
		}

		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		if !m.running.Load() {
			continue
		}

		// fatal conditions halt the machine and are reported through listeners
		_ = m.Step()
	}
}

// Frame returns a copy of the screen.
func (m *Machine) Frame() video.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fb.Frame()
}

// Registers returns a snapshot of the registers and memory.
func (m *Machine) Registers() debug.Registers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registersLocked()
}

func (m *Machine) registersLocked() debug.Registers {
	return debug.Registers{
		V:      m.cpu.V(),
		I:      m.cpu.I(),
		PC:     m.cpu.PC(),
		SP:     m.cpu.SP(),
		Stack:  m.cpu.Stack(),
		DT:     m.cpu.DT(),
		ST:     m.cpu.ST(),
		Opcode: uint16(m.cpu.CurrentOpcode()),
		Cycles: m.cpu.Cycles(),
		Memory: m.mem.Snapshot(),
	}
}

// DebuggerState maps the machine state to the debug display state.
func (m *Machine) DebuggerState() debug.DebuggerState {
	switch m.State() {
	case StateRunning:
		return debug.DebuggerRunning
	case StateHalted:
		return debug.DebuggerHalted
	default:
		return debug.DebuggerPaused
	}
}
