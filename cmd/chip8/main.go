package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"github.com/valerio/go-chip8/chip8"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/backend/headless"
	"github.com/valerio/go-chip8/chip8/backend/sdl2"
	"github.com/valerio/go-chip8/chip8/backend/terminal"
	"github.com/valerio/go-chip8/chip8/backend/web"
	"github.com/valerio/go-chip8/chip8/cpu"
	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/rom"
	"github.com/valerio/go-chip8/chip8/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "chip8"
	app.Description = "A CHIP-8 interpreter"
	app.Usage = "chip8 [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file, .zip .gz .xz and .7z archives are unpacked",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Frontend to use: terminal, sdl2, web or headless",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "hz",
			Usage: "Instructions per second",
			Value: timing.DefaultFrequency,
		},
		cli.IntFlag{
			Name:  "stack-depth",
			Usage: "Maximum nested subroutine calls",
			Value: cpu.DefaultStackDepth,
		},
		cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for the random number instruction, 0 = random",
		},
		cli.BoolFlag{
			Name:  "paused",
			Usage: "Start paused, press space to run",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Show registers, memory and disassembly panels",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Pixel scale for windows and snapshots",
			Value: display.DefaultPixelScale,
		},
		cli.StringFlag{
			Name:  "listen",
			Usage: "Address of the web backend",
			Value: web.DefaultAddress,
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode, 0 = until halted",
		},
		cli.IntFlag{
			Name:  "cycles",
			Usage: "Number of instructions to run in headless mode, overrides --frames",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory in headless mode, current directory otherwise)",
		},
	}
	app.Action = runEmulator
	app.Commands = []cli.Command{
		{
			Name:      "disasm",
			Usage:     "Print the disassembly of a ROM",
			ArgsUsage: "<ROM file>",
			Action:    runDisassembler,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func romPath(c *cli.Context) (string, error) {
	if path := c.GlobalString("rom"); path != "" {
		return path, nil
	}
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	cli.ShowAppHelp(c)
	return "", errors.New("no ROM path provided")
}

func runEmulator(c *cli.Context) error {
	path, err := romPath(c)
	if err != nil {
		return err
	}

	if c.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	data, err := rom.Load(path)
	if err != nil {
		return err
	}

	hz := c.Int("hz")
	if hz < chip8.MinClockFrequency || hz > chip8.MaxClockFrequency {
		return fmt.Errorf("--hz must be between %d and %d", chip8.MinClockFrequency, chip8.MaxClockFrequency)
	}

	opts := []chip8.Option{
		chip8.WithClockFrequency(hz),
		chip8.WithStackDepth(c.Int("stack-depth")),
	}
	if seed := c.Uint64("seed"); seed != 0 {
		rng := rand.New(rand.NewPCG(seed, seed))
		opts = append(opts, chip8.WithRandom(func() uint8 { return uint8(rng.UintN(256)) }))
	}

	machine := chip8.New(opts...)
	if err := machine.Reload(data); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	b, lockstep, err := newBackend(c, path, hz)
	if err != nil {
		return err
	}

	host := chip8.NewHost(machine, b, chip8.HostConfig{
		Backend: backend.BackendConfig{
			Title:       "chip8 - " + path,
			Scale:       c.Int("scale"),
			ShowDebug:   c.Bool("debug"),
			SnapshotDir: c.String("snapshot-dir"),
		},
		ROM:         data,
		StartPaused: c.Bool("paused"),
		Lockstep:    lockstep,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newBackend returns the selected backend, and whether the machine must be
// stepped in lockstep with it.
func newBackend(c *cli.Context, path string, hz int) (backend.Backend, bool, error) {
	switch name := c.String("backend"); name {
	case "terminal":
		return terminal.New(), false, nil
	case "sdl2":
		return sdl2.New(), false, nil
	case "web":
		return web.New(c.String("listen")), false, nil
	case "headless":
		frames := c.Int("frames")
		if cycles := c.Int("cycles"); cycles > 0 {
			frames = headlessFrames(cycles, hz)
		}
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), path, c.Int("scale"))
		if err != nil {
			return nil, false, err
		}
		return headless.New(frames, snapshots), true, nil
	default:
		return nil, false, fmt.Errorf("unknown backend %q", name)
	}
}

// headlessFrames returns how many refreshes run at least cycles instructions.
func headlessFrames(cycles, hz int) int {
	perFrame := max(hz/timing.DisplayRate, 1)
	return (cycles + perFrame - 1) / perFrame
}
