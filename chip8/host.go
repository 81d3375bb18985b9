package chip8

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/timing"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	MinClockFrequency = 1
	MaxClockFrequency = 10000

	defaultLogLines    = 100
	disassemblyLines   = 9
	defaultDisplayRate = time.Second / timing.DisplayRate
)

// HostConfig configures a Host.
type HostConfig struct {
	Backend backend.BackendConfig

	// ROM is reloaded into the machine on reset.
	ROM []byte

	// StartPaused leaves the machine paused until the pause toggle is pressed.
	StartPaused bool

	// Lockstep steps the machine from the host loop, hz/60 cycles per refresh, instead of
	// running it on its own goroutine. Used by the headless backend for deterministic runs.
	Lockstep bool

	// FrameInterval is the time between backend refreshes. Zero selects 60Hz, or no
	// waiting at all in lockstep mode.
	FrameInterval time.Duration

	QueueCapacity int
	LogLines      int
}

// Host drives a Machine with a Backend: it runs the execution worker, renders the
// latest frame at the display rate and turns backend input into machine controls.
type Host struct {
	machine *Machine
	backend backend.Backend
	config  HostConfig
	queue   *EventQueue
	input   *input.Manager

	mu     sync.Mutex
	frame  video.Frame
	regs   *debug.Registers
	logs   []string
	cycles uint64

	quit     chan struct{}
	quitOnce sync.Once
}

var _ backend.DebugDataProvider = (*Host)(nil)

// NewHost subscribes a new host to m. Call Run to start it.
func NewHost(m *Machine, b backend.Backend, config HostConfig) *Host {
	if config.LogLines <= 0 {
		config.LogLines = defaultLogLines
	}

	h := &Host{
		machine: m,
		backend: b,
		config:  config,
		queue:   NewEventQueue(config.QueueCapacity),
		input:   input.NewManager(m),
		frame:   m.Frame(),
		quit:    make(chan struct{}),
	}
	regs := m.Registers()
	h.regs = &regs

	m.AddListener(h.queue)
	h.registerActions()

	return h
}

func (h *Host) registerActions() {
	h.input.On(action.EmulatorPauseToggle, event.Press, h.togglePause)
	h.input.On(action.EmulatorStepInstruction, event.Press, h.stepOnce)
	h.input.On(action.EmulatorReset, event.Press, h.reset)
	h.input.On(action.EmulatorSpeedUp, event.Press, func() { h.changeSpeed(2, 1) })
	h.input.On(action.EmulatorSpeedDown, event.Press, func() { h.changeSpeed(1, 2) })
	h.input.On(action.EmulatorSnapshot, event.Press, h.snapshot)
	h.input.On(action.EmulatorQuit, event.Press, h.RequestQuit)

	handler, ok := h.backend.(backend.ActionHandler)
	if !ok {
		return
	}
	for act := action.EmulatorPauseToggle; act <= action.DebugLogLevelDecrease; act++ {
		h.input.On(act, event.Press, func() { handler.HandleAction(act) })
	}
}

// Run initializes the backend and runs until quit is requested or ctx is done.
// The execution worker is stopped and joined before Run returns.
func (h *Host) Run(ctx context.Context) error {
	cfg := h.config.Backend
	cfg.DebugProvider = h
	onQuit := cfg.Callbacks.OnQuit
	cfg.Callbacks.OnQuit = func() {
		if onQuit != nil {
			onQuit()
		}
		h.RequestQuit()
	}

	if err := h.backend.Init(cfg); err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}
	defer func() {
		if err := h.backend.Cleanup(); err != nil {
			slog.Error("Backend cleanup failed", "error", err)
		}
	}()

	if !h.config.StartPaused {
		h.machine.Start()
	}

	if h.config.Lockstep {
		return h.runLockstep(ctx)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- h.machine.Run(workerCtx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	interval := h.config.FrameInterval
	if interval <= 0 {
		interval = defaultDisplayRate
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.quit:
			return nil
		case <-ticker.C:
			if err := h.refresh(); err != nil {
				return err
			}
		}
	}
}

func (h *Host) runLockstep(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.quit:
			return nil
		default:
		}

		cycles := max(h.machine.ClockFrequency()/timing.DisplayRate, 1)
		for i := 0; i < cycles && h.machine.State() == StateRunning; i++ {
			_ = h.machine.Step()
		}

		if err := h.refresh(); err != nil {
			return err
		}

		if h.config.FrameInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.config.FrameInterval):
			}
		}
	}
}

// refresh consumes queued notifications, renders the latest frame and handles input.
func (h *Host) refresh() error {
	h.drainEvents()

	frame := h.Frame()
	events, err := h.backend.Update(&frame)
	if err != nil {
		return fmt.Errorf("backend update failed: %w", err)
	}

	for _, e := range events {
		h.input.Trigger(e.Action, e.Type)
	}
	return nil
}

func (h *Host) drainEvents() {
	events := h.queue.Drain()
	if len(events) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range events {
		switch e.Kind {
		case EventFrame:
			h.frame = *e.Frame
		case EventRegisters:
			h.regs = e.Registers
		case EventLog:
			h.logs = append(h.logs, e.Message)
			if len(h.logs) > h.config.LogLines {
				h.logs = h.logs[len(h.logs)-h.config.LogLines:]
			}
		case EventEndOfCycle:
			h.cycles++
		}
	}
}

// RequestQuit stops Run, it is safe to call more than once.
func (h *Host) RequestQuit() {
	h.quitOnce.Do(func() {
		slog.Info("Quit requested")
		close(h.quit)
	})
}

// Frame returns the latest frame received from the machine.
func (h *Host) Frame() video.Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}

// Logs returns the most recent machine log messages, oldest first.
func (h *Host) Logs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.logs...)
}

// Cycles returns how many end of cycle notifications the host consumed.
func (h *Host) Cycles() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cycles
}

// ExtractDebugData implements backend.DebugDataProvider from the latest snapshot.
func (h *Host) ExtractDebugData() *debug.CompleteDebugData {
	h.mu.Lock()
	regs := h.regs
	h.mu.Unlock()

	return debug.Collect(regs, h.machine.DebuggerState(), h.machine.ClockFrequency(), disassemblyLines)
}

func (h *Host) togglePause() {
	if h.machine.State() == StateRunning {
		h.machine.Pause()
		slog.Info("Paused")
		return
	}
	h.machine.Start()
	slog.Info("Resumed")
}

func (h *Host) stepOnce() {
	if h.machine.State() == StateRunning {
		return
	}
	if err := h.machine.Step(); err != nil {
		slog.Debug("Step failed", "error", err)
	}
}

func (h *Host) reset() {
	if err := h.machine.Reload(h.config.ROM); err != nil {
		slog.Error("Failed to reload ROM", "error", err)
	}
	h.mu.Lock()
	h.frame = h.machine.Frame()
	regs := h.machine.Registers()
	h.regs = &regs
	h.mu.Unlock()
	slog.Info("Machine reset")
}

func (h *Host) changeSpeed(mul, div int) {
	hz := h.machine.ClockFrequency() * mul / div
	hz = min(max(hz, MinClockFrequency), MaxClockFrequency)
	h.machine.SetClockFrequency(hz)
	slog.Info("Clock frequency", "hz", hz)
}

func (h *Host) snapshot() {
	frame := h.Frame()
	debug.TakeSnapshot(&frame, h.config.Backend.SnapshotDir, h.config.Backend.Scale)
}
