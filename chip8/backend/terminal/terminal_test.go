package terminal

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

type fakeProvider struct {
	data *debug.CompleteDebugData
}

func (p *fakeProvider) ExtractDebugData() *debug.CompleteDebugData {
	return p.data
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBackend(t *testing.T, config backend.BackendConfig) (*Backend, tcell.SimulationScreen, *fakeClock) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b.now = clock.now

	require.NoError(t, b.Init(config))
	screen.SetSize(100, 40)
	t.Cleanup(func() { _ = b.Cleanup() })
	return b, screen, clock
}

func TestTerminal_KeypadEvents(t *testing.T) {
	b, screen, clock := newTestBackend(t, backend.BackendConfig{})
	var frame video.Frame

	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	events, err := b.Update(&frame)
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{{Action: action.Keypad7, Type: event.Press}}, events)

	// key repeat keeps it held
	clock.advance(50 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	events, _ = b.Update(&frame)
	assert.Equal(t, []backend.InputEvent{{Action: action.Keypad7, Type: event.Hold}}, events)

	clock.advance(keyTimeout)
	events, _ = b.Update(&frame)
	assert.Equal(t, []backend.InputEvent{{Action: action.Keypad7, Type: event.Release}}, events)

	events, _ = b.Update(&frame)
	assert.Empty(t, events)
}

func TestTerminal_NewKeyReleasesPrevious(t *testing.T) {
	b, screen, clock := newTestBackend(t, backend.BackendConfig{})
	var frame video.Frame

	screen.InjectKey(tcell.KeyRune, '1', tcell.ModNone)
	_, _ = b.Update(&frame)

	clock.advance(10 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'V', tcell.ModNone) // caps lock still maps
	events, _ := b.Update(&frame)
	assert.ElementsMatch(t, []backend.InputEvent{
		{Action: action.KeypadF, Type: event.Press},
		{Action: action.Keypad1, Type: event.Release},
	}, events)
}

func TestTerminal_ControlEvents(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		want action.Action
	}{
		{name: "space pauses", key: tcell.KeyRune, r: ' ', want: action.EmulatorPauseToggle},
		{name: "n steps", key: tcell.KeyRune, r: 'n', want: action.EmulatorStepInstruction},
		{name: "F5 resets", key: tcell.KeyF5, want: action.EmulatorReset},
		{name: "] speeds up", key: tcell.KeyRune, r: ']', want: action.EmulatorSpeedUp},
		{name: "F12 snapshots", key: tcell.KeyF12, want: action.EmulatorSnapshot},
		{name: "escape quits", key: tcell.KeyEscape, want: action.EmulatorQuit},
		{name: "ctrl-c quits", key: tcell.KeyCtrlC, want: action.EmulatorQuit},
		{name: "minus filters logs", key: tcell.KeyRune, r: '-', want: action.DebugLogLevelDecrease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, screen, _ := newTestBackend(t, backend.BackendConfig{})
			var frame video.Frame

			screen.InjectKey(tt.key, tt.r, tcell.ModNone)
			events, err := b.Update(&frame)
			require.NoError(t, err)
			assert.Equal(t, []backend.InputEvent{{Action: tt.want, Type: event.Press}}, events)
		})
	}
}

func TestTerminal_UnmappedKeysAreIgnored(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.BackendConfig{})
	var frame video.Frame

	screen.InjectKey(tcell.KeyRune, 'k', tcell.ModNone)
	screen.InjectKey(tcell.KeyTab, 0, tcell.ModNone)
	events, err := b.Update(&frame)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTerminal_RendersFrame(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.BackendConfig{})

	var frame video.Frame
	frame[0][0] = 1
	frame[1][0] = 1
	frame[0][1] = 1
	frame[3][2] = 1

	_, err := b.Update(&frame)
	require.NoError(t, err)

	cell := func(x, y int) rune {
		r, _, _, _ := screen.GetContent(x, y)
		return r
	}
	// the screen starts below the title row
	assert.Equal(t, '█', cell(0, 1))
	assert.Equal(t, '▀', cell(1, 1))
	assert.Equal(t, '▄', cell(2, 2))
	assert.Equal(t, ' ', cell(3, 1))
	assert.Equal(t, '│', cell(dividerX, 1))
}

func TestTerminal_TooSmall(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.BackendConfig{})
	screen.SetSize(40, 10)

	var frame video.Frame
	frame[0][0] = 1
	_, err := b.Update(&frame)
	require.NoError(t, err)

	r, _, _, _ := screen.GetContent(0, 5)
	assert.Equal(t, 'T', r)
	r, _, _, _ = screen.GetContent(0, 1)
	assert.NotEqual(t, '█', r)
}

func TestTerminal_DebugPanels(t *testing.T) {
	mem := make([]byte, 4096)
	mem[0x200], mem[0x201] = 0x60, 0x0A
	regs := &debug.Registers{PC: 0x200, I: 0x050, Memory: mem}
	regs.V[0xA] = 0x42
	provider := &fakeProvider{data: debug.Collect(regs, debug.DebuggerPaused, 500, disasmLines)}

	b, screen, _ := newTestBackend(t, backend.BackendConfig{ShowDebug: true, DebugProvider: provider})

	var frame video.Frame
	_, err := b.Update(&frame)
	require.NoError(t, err)

	line := func(x, y, n int) string {
		out := make([]rune, 0, n)
		for i := 0; i < n; i++ {
			r, _, _, _ := screen.GetContent(x+i, y)
			out = append(out, r)
		}
		return string(out)
	}

	assert.Equal(t, "State: PAUSED", line(rightPanelX, 1, 13))
	assert.Equal(t, "VA: 42", line(rightPanelX, 7, 6))
	assert.Equal(t, "I: 0050  PC: 0200", line(rightPanelX, 10, 17))
	assert.Equal(t, "|Address| PC | Value |", line(0, bottomPanelY+1, 22))
	assert.Equal(t, "| 0x0200| -> | 0x600A|", line(0, bottomPanelY+3+3, 22))
	assert.Contains(t, line(memoryPanelW, bottomPanelY+1+disasmLines/2, 30), "→ 200:")

	b.HandleAction(action.EmulatorDebugToggle)
	assert.False(t, b.ShowDebug())
	_, _ = b.Update(&frame)
	assert.NotEqual(t, "State: PAUSED", line(rightPanelX, 1, 13))
}

func TestTerminal_LogLevel(t *testing.T) {
	b, _, _ := newTestBackend(t, backend.BackendConfig{})
	assert.Equal(t, slog.LevelInfo, b.LogLevel())

	b.HandleAction(action.DebugLogLevelIncrease)
	assert.Equal(t, slog.LevelDebug, b.LogLevel())
	b.HandleAction(action.DebugLogLevelIncrease)
	assert.Equal(t, slog.LevelDebug, b.LogLevel(), "debug is the most verbose")

	for i := 0; i < 4; i++ {
		b.HandleAction(action.DebugLogLevelDecrease)
	}
	assert.Equal(t, slog.LevelError, b.LogLevel())
}

func TestTerminal_CapturesLogs(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.BackendConfig{})
	slog.Warn("Machine halted", "error", "boom")

	var frame video.Frame
	_, err := b.Update(&frame)
	require.NoError(t, err)

	entries := b.logBuffer.GetRecent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "Machine halted error=boom", entries[0].Message)

	// newest log first, below the logs title
	r, _, style, _ := screen.GetContent(rightPanelX+10, 1)
	assert.Equal(t, 'W', r)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.ColorYellow, fg)
}

func TestTerminalImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
	var _ backend.ActionHandler = (*Backend)(nil)
}
