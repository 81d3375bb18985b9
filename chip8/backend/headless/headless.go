package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

// Backend implements the Backend interface for automated testing and batch processing
type Backend struct {
	config         backend.BackendConfig
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
	lastDigest     uint64
	snapshots      []string
	done           bool
}

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames
	Directory string // Directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
	Scale     int
}

// New returns a backend that renders nothing and quits after maxFrames updates,
// or as soon as the machine halts. maxFrames <= 0 runs until halted.
func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)

	// Set up debug logging for headless mode
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}

// Update processes a frame and handles snapshots
func (h *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	if h.done {
		return quitEvent(), nil
	}

	h.frameCount++
	h.lastDigest = frame.Digest()

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%60 == 0 {
		slog.Debug("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	halted := h.halted()
	if !halted && (h.maxFrames <= 0 || h.frameCount < h.maxFrames) {
		return nil, nil
	}

	// final snapshot, unless one was just written
	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
		h.saveSnapshot(frame)
	}

	h.done = true
	slog.Info("Headless execution completed",
		"frames", h.frameCount,
		"halted", halted,
		"digest", fmt.Sprintf("%016x", h.lastDigest),
		"snapshots", len(h.snapshots))

	return quitEvent(), nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// FrameCount returns how many frames were received.
func (h *Backend) FrameCount() int {
	return h.frameCount
}

// LastDigest returns the digest of the last frame received.
func (h *Backend) LastDigest() uint64 {
	return h.lastDigest
}

// Snapshots returns the paths of the PNG files written so far.
func (h *Backend) Snapshots() []string {
	return append([]string(nil), h.snapshots...)
}

func (h *Backend) halted() bool {
	if h.config.DebugProvider == nil {
		return false
	}
	data := h.config.DebugProvider.ExtractDebugData()
	return data != nil && data.DebuggerState == debug.DebuggerHalted
}

func quitEvent() []backend.InputEvent {
	return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory, romPath string, scale int) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
		Scale:    scale,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "chip8-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	config.ROMName = filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(config.ROMName, filepath.Ext(config.ROMName))

	return config, nil
}

// saveSnapshot saves a PNG snapshot for the current frame
func (h *Backend) saveSnapshot(frame *video.Frame) {
	name := fmt.Sprintf("%s_frame_%d.png", h.snapshotConfig.ROMName, h.frameCount)
	path := filepath.Join(h.snapshotConfig.Directory, name)

	if err := debug.SaveFramePNG(frame, path, h.snapshotConfig.Scale); err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", h.frameCount, "error", err)
		return
	}
	h.snapshots = append(h.snapshots, path)
}
