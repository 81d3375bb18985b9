//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
	"github.com/veandco/go-sdl2/sdl"
)

// Backend implements the Backend interface using SDL2 bindings
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stubbed renderer, see build tags (sdl2)
type Backend struct {
	window    *sdl.Window
	renderer  *sdl.Renderer
	texture   *sdl.Texture
	running   bool
	callbacks backend.BackendCallbacks
	config    backend.BackendConfig
	pixels    []byte
	events    []backend.InputEvent
}

// New creates a new SDL2 backend
func New() *Backend {
	return &Backend{
		pixels: make([]byte, pitch*video.FramebufferHeight),
	}
}

// Init initializes the SDL2 backend
func (s *Backend) Init(config backend.BackendConfig) error {
	s.config = config
	s.callbacks = config.Callbacks

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	width, height := windowSize(config.Scale)
	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		width,
		height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	s.renderer = renderer

	// keep the 2:1 aspect ratio when the window is resized
	if err := renderer.SetLogicalSize(video.FramebufferWidth, video.FramebufferHeight); err != nil {
		slog.Warn("Failed to set logical size", "error", err)
	}

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create texture: %w", err)
	}
	s.texture = texture

	s.running = true
	slog.Info("SDL2 backend initialized", "width", width, "height", height)

	return nil
}

// Update renders a frame and processes events
func (s *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		s.handleEvent(e)
	}

	events := s.events
	s.events = nil

	if !s.running {
		return events, nil
	}

	if err := s.renderFrame(frame); err != nil {
		return events, err
	}
	if s.config.ShowDebug {
		s.updateTitle()
	}

	return events, nil
}

// Cleanup cleans up SDL2 resources
func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend")

	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()

	return nil
}

// HandleAction processes backend-specific actions
func (s *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorDebugToggle:
		s.config.ShowDebug = !s.config.ShowDebug
		if !s.config.ShowDebug {
			s.window.SetTitle(s.config.Title)
		}
	case action.EmulatorQuit:
		s.running = false
	}
}

func (s *Backend) handleEvent(e sdl.Event) {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		s.running = false
		if s.callbacks.OnQuit != nil {
			s.callbacks.OnQuit()
		}

	case *sdl.KeyboardEvent:
		act, ok := keyMapping[e.Keysym.Sym]
		if !ok {
			return
		}
		keypad := action.GetInfo(act).Category == action.CategoryKeypad

		switch {
		case e.Type == sdl.KEYDOWN && e.Repeat != 0:
			if keypad {
				s.events = append(s.events, backend.InputEvent{Action: act, Type: event.Hold})
			}
		case e.Type == sdl.KEYDOWN:
			s.events = append(s.events, backend.InputEvent{Action: act, Type: event.Press})
		case e.Type == sdl.KEYUP && keypad:
			s.events = append(s.events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
}

// keyMapping maps SDL2 keys to actions, printable keycodes are their character
var keyMapping = buildKeyMapping()

func buildKeyMapping() map[sdl.Keycode]action.Action {
	mapping := make(map[sdl.Keycode]action.Action)

	for keyName, act := range input.DefaultKeyMap {
		if runes := []rune(keyName); len(runes) == 1 {
			mapping[sdl.Keycode(runes[0])] = act
		}
	}

	named := map[string]sdl.Keycode{
		"Space":  sdl.K_SPACE,
		"Escape": sdl.K_ESCAPE,
		"F5":     sdl.K_F5,
		"F10":    sdl.K_F10,
		"F12":    sdl.K_F12,
	}
	for keyName, key := range named {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}

	return mapping
}

func (s *Backend) renderFrame(frame *video.Frame) error {
	fillPixels(frame, s.pixels)

	if err := s.texture.Update(nil, unsafe.Pointer(&s.pixels[0]), pitch); err != nil {
		return fmt.Errorf("failed to update texture: %w", err)
	}

	s.renderer.SetDrawColor(display.GrayscaleOff, display.GrayscaleOff, display.GrayscaleOff, display.FullAlpha)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
	return nil
}

// updateTitle shows the machine state in the window title
func (s *Backend) updateTitle() {
	if s.config.DebugProvider == nil {
		return
	}
	data := s.config.DebugProvider.ExtractDebugData()
	if data == nil || data.Registers == nil {
		return
	}
	regs := data.Registers
	s.window.SetTitle(fmt.Sprintf("%s | %s PC=%04X I=%04X %dHz", s.config.Title, data.DebuggerState, regs.PC, regs.I, data.ClockHz))
}
