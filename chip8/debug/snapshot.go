package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/video"
	"golang.org/x/image/draw"
)

// TakeSnapshot handles F12 snapshot logic for backends
func TakeSnapshot(frame *video.Frame, directory string, scale int) {
	if frame == nil {
		slog.Warn("No frame data available for snapshot")
		return
	}

	if _, err := SaveFramePNGToDir(frame, "chip8_snapshot", directory, scale); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}

// FrameImage converts a frame to an image, each pixel scaled to a scale x scale square.
func FrameImage(frame *video.Frame, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}

	src := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for i, pixel := range frame.ToSlice() {
		r, g, b, a := display.RGBA(pixel)
		src.SetRGBA(i%video.FramebufferWidth, i/video.FramebufferWidth, color.RGBA{R: r, G: g, B: b, A: a})
	}
	if scale == 1 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth*scale, video.FramebufferHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SaveFramePNG writes a frame as PNG to path.
func SaveFramePNG(frame *video.Frame, path string, scale int) error {
	img := FrameImage(frame, scale)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SaveFramePNGToDir saves a frame as PNG with timestamp to a specific directory,
// the current directory when empty. Returns the path of the written file.
func SaveFramePNGToDir(frame *video.Frame, baseName, directory string, scale int) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.png", baseName, timestamp)

	// Determine output directory
	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		outputDir = cwd
	}

	filePath := filepath.Join(outputDir, filename)
	if err := SaveFramePNG(frame, filePath, scale); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", video.FramebufferWidth*max(scale, 1), video.FramebufferHeight*max(scale, 1)), "format", "PNG")
	return filePath, nil
}
