package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/backend/terminal/render"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	screenRows     = height / 2
	dividerX       = width + 1
	rightPanelX    = dividerX + 2
	registerHeight = 16
	bottomPanelY   = screenRows + 2
	memoryPanelW   = 24
	disasmLines    = 9
	logCapacity    = 200
	minTermWidth   = 80
	minTermHeight  = 24
)

// Key expiry timeout - slightly longer than typical key repeat interval
const keyTimeout = 100 * time.Millisecond

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen     tcell.Screen
	logBuffer  *render.LogBuffer
	logLevel   slog.Level
	config     backend.BackendConfig
	eventQueue []backend.InputEvent // Collect events to return

	keyStates  map[action.Action]time.Time // Last time each key was pressed
	activeKeys map[action.Action]bool      // Keys active in previous frame

	signals chan os.Signal
	now     func() time.Time

	// For accessing machine state
	debugProvider backend.DebugDataProvider
}

// New creates a new terminal backend drawing on the controlling terminal
func New() *Backend {
	return &Backend{
		logLevel: slog.LevelInfo,
		now:      time.Now,
	}
}

// NewWithScreen creates a terminal backend drawing on screen, e.g. a tcell simulation screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.screen = screen
	return b
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.debugProvider = config.DebugProvider
	t.eventQueue = nil
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}

	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Capture logs in the terminal, stderr is hidden behind the screen
	t.logBuffer = render.NewLogBuffer(logCapacity)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))

	slog.Info("Terminal backend initialized")
	if config.ShowDebug {
		slog.Debug("Debug mode enabled")
	}

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// Set up signal handling for graceful shutdown
	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	return nil
}

// Update renders a frame and processes events
func (t *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	now := t.now()

	select {
	case sig := <-t.signals:
		slog.Info("Signal received", "signal", sig)
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	default:
	}

	// Poll for input events synchronously
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	// The terminal only reports presses and repeats: a keypad key is held until
	// no repeat arrived for keyTimeout.
	currentlyActive := make(map[action.Action]bool)
	for act, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}

		currentlyActive[act] = true
		if !t.activeKeys[act] {
			slog.Debug("Key press", "action", action.GetInfo(act).Name)
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		}
	}

	for act := range t.activeKeys {
		if !currentlyActive[act] {
			slog.Debug("Key release", "action", action.GetInfo(act).Name)
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	t.activeKeys = currentlyActive

	for _, evt := range t.eventQueue {
		slog.Debug("UI event", "action", action.GetInfo(evt.Action).Name, "type", evt.Type)
	}
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	return nil
}

// HandleAction processes backend-specific actions
func (t *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
		if t.config.ShowDebug {
			slog.Info("Debug display enabled")
		} else {
			slog.Info("Debug display disabled")
		}
	case action.EmulatorReset:
		t.screen.Sync()
	case action.DebugLogLevelIncrease:
		t.changeLogLevel(1)
	case action.DebugLogLevelDecrease:
		t.changeLogLevel(-1)
	}
}

// ShowDebug reports whether the debug panels are drawn.
func (t *Backend) ShowDebug() bool {
	return t.config.ShowDebug
}

// LogLevel returns the minimum level of the displayed log lines.
func (t *Backend) LogLevel() slog.Level {
	return t.logLevel
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		act, ok = runeMapping[unicode.ToLower(ev.Rune())]
	}
	if !ok {
		return
	}

	if action.GetInfo(act).Category != action.CategoryKeypad {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
		return
	}

	// the machine latches a single key, a new key releases the others
	for other := range t.keyStates {
		if other != act {
			delete(t.keyStates, other)
		}
	}
	t.keyStates[act] = now
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEscape: "Escape",
	tcell.KeyF5:     "F5",
	tcell.KeyF10:    "F10",
	tcell.KeyF12:    "F12",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)

	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}

	mapping[tcell.KeyCtrlC] = action.EmulatorQuit

	return mapping
}

// buildRuneMapping maps every single character key name of the default mappings
func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)

	for keyName, act := range input.DefaultKeyMap {
		runes := []rune(keyName)
		if len(runes) == 1 {
			mapping[runes[0]] = act
		}
	}
	if act, ok := input.GetDefaultMapping("Space"); ok {
		mapping[' '] = act
	}

	return mapping
}

var (
	keyMapping  = buildKeyMapping()
	runeMapping = buildRuneMapping()
)

func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel
	switch direction {
	case -1:
		switch t.logLevel {
		case slog.LevelDebug:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelError
		}
	case 1:
		switch t.logLevel {
		case slog.LevelError:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelDebug
		}
	}
	if oldLevel != t.logLevel {
		slog.Info("Log filter changed", "from", oldLevel, "to", t.logLevel)
	}
}

func (t *Backend) render(frame *video.Frame) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	t.drawBorders(termWidth, termHeight)
	t.drawScreen(frame)

	var data *debug.CompleteDebugData
	if t.config.ShowDebug && t.debugProvider != nil {
		data = t.debugProvider.ExtractDebugData()
	}

	logsY := 1
	if data != nil && data.Registers != nil {
		t.drawRegisters(data, rightPanelX, 1, termWidth-rightPanelX)
		t.drawMemoryWindow(data, 0, bottomPanelY+1)
		t.drawDisassembly(data, memoryPanelW, bottomPanelY+1, dividerX-memoryPanelW)
		logsY = registerHeight + 2
	}
	t.drawLogs(rightPanelX, logsY, termWidth-rightPanelX, termHeight)
}

// drawText writes text at x, y clipped to maxWidth and the screen.
func (t *Backend) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	termWidth, termHeight := t.screen.Size()
	if y < 0 || y >= termHeight {
		return
	}
	i := 0
	for _, ch := range text {
		if i >= maxWidth || x+i >= termWidth {
			return
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}

func (t *Backend) drawBorders(termWidth, termHeight int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	for x := 0; x < dividerX; x++ {
		t.screen.SetContent(x, screenRows+1, '─', nil, borderStyle)
	}
	t.screen.SetContent(dividerX, screenRows+1, '┤', nil, borderStyle)

	t.drawText(1, 0, dividerX-1, " CHIP-8 ", titleStyle)

	if t.config.ShowDebug {
		t.drawText(rightPanelX, 0, termWidth-rightPanelX, " Registers ", titleStyle)
		t.drawText(1, bottomPanelY, memoryPanelW, " Memory ", titleStyle)
		t.drawText(memoryPanelW+1, bottomPanelY, dividerX-memoryPanelW, " Disassembly ", titleStyle)
		for x := dividerX + 1; x < termWidth; x++ {
			t.screen.SetContent(x, registerHeight+1, '─', nil, borderStyle)
		}
		t.screen.SetContent(dividerX, registerHeight+1, '├', nil, borderStyle)
	}

	logsTitleY := 0
	if t.config.ShowDebug {
		logsTitleY = registerHeight + 1
	}
	title := fmt.Sprintf(" Logs [%s] (-/+ filter) ", strings.ToUpper(t.logLevel.String()))
	t.drawText(rightPanelX, logsTitleY, termWidth-rightPanelX, title, titleStyle)

	help := " SPACE=pause N=step F5=reset [/]=speed F10=debug F12=snapshot ESC=quit "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

func (t *Backend) drawScreen(frame *video.Frame) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for y, row := range render.Cells(frame) {
		for x, ch := range row {
			t.screen.SetContent(x, y+1, ch, nil, style)
		}
	}
}

func (t *Backend) drawRegisters(data *debug.CompleteDebugData, startX, startY, width int) {
	regs := data.Registers
	lines := []string{
		fmt.Sprintf("State: %s", strings.ToUpper(data.DebuggerState.String())),
	}
	for i := 0; i < len(regs.V); i += 2 {
		lines = append(lines, fmt.Sprintf("V%X: %02X  V%X: %02X", i, regs.V[i], i+1, regs.V[i+1]))
	}
	lines = append(lines,
		fmt.Sprintf("I: %04X  PC: %04X", regs.I, regs.PC),
		fmt.Sprintf("SP: %d  DT: %02X  ST: %02X", regs.SP, regs.DT, regs.ST),
		fmt.Sprintf("Op: %04X  %dHz", regs.Opcode, data.ClockHz),
		fmt.Sprintf("Cycles: %d", regs.Cycles),
	)

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines {
		if i >= registerHeight {
			break
		}
		t.drawText(startX, startY+i, width, line, style)
	}
}

func (t *Backend) drawMemoryWindow(data *debug.CompleteDebugData, startX, startY int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	table := strings.TrimSuffix(debug.FormatMemoryWindow(data.MemoryWindow), "\n")
	for i, line := range strings.Split(table, "\n") {
		useStyle := style
		// two header lines precede the rows
		if row := i - 2; row >= 0 && row < len(data.MemoryWindow) && data.MemoryWindow[row].IsPC {
			useStyle = currentStyle
		}
		t.drawText(startX, startY+i, memoryPanelW, line, useStyle)
	}
}

func (t *Backend) drawDisassembly(data *debug.CompleteDebugData, startX, startY, width int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range data.Disassembly {
		if i >= disasmLines {
			break
		}
		prefix, useStyle := "  ", style
		if line.IsCurrent {
			prefix, useStyle = "→ ", currentStyle
		}
		t.drawText(startX, startY+i, width, fmt.Sprintf("%s%03X: %s", prefix, line.Address, line.Instruction), useStyle)
	}
}

func (t *Backend) drawLogs(startX, startY, width, termHeight int) {
	availableHeight := termHeight - startY - 1
	if width <= 0 || availableHeight <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	y := startY
	for _, entry := range t.logBuffer.GetRecent(0) {
		if y >= startY+availableHeight {
			break
		}
		if entry.Level < t.logLevel {
			continue
		}

		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}

		text := render.FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		t.drawText(startX, y, width, text, style)
		y++
	}
}
