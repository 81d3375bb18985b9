package main

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/valerio/go-chip8/chip8/disasm"
	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/rom"
)

func runDisassembler(c *cli.Context) error {
	path, err := romPath(c)
	if err != nil {
		return err
	}

	data, err := rom.Load(path)
	if err != nil {
		return err
	}

	for _, line := range disasm.Program(data, memory.ProgramStart) {
		fmt.Fprintln(c.App.Writer, line.String())
	}
	return nil
}
