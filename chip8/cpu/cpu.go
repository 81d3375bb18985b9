package cpu

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	// DefaultStackDepth is the canonical amount of nested calls.
	DefaultStackDepth = 16

	// instructionWidth is the size in bytes of every opcode.
	instructionWidth = 2

	// lastFetchAddress is the highest PC whose second byte is still in memory.
	lastFetchAddress = memory.Size - instructionWidth
)

var (
	// ErrFatal is wrapped by every condition that stops the machine.
	ErrFatal = errors.New("fatal")

	ErrUnknownOpcode  = fmt.Errorf("%w: unknown opcode", ErrFatal)
	ErrPCOutOfBounds  = fmt.Errorf("%w: program counter out of bounds", ErrFatal)
	ErrStackOverflow  = fmt.Errorf("%w: call stack overflow", ErrFatal)
	ErrStackUnderflow = fmt.Errorf("%w: return with empty call stack", ErrFatal)
)

// Keypad is the read side of the input latch.
type Keypad interface {
	Key() uint8
	Pressed() bool
}

// CPU holds the CHIP-8 register file and executes instructions against
// memory, the framebuffer and the keypad.
type CPU struct {
	// registers
	v  [16]uint8
	i  uint16
	pc uint16
	dt uint8
	st uint8

	stack      []uint16
	stackDepth int

	// metadata
	currentOpcode Opcode
	cycles        uint64

	mem    *memory.Memory
	fb     *video.FrameBuffer
	keys   Keypad
	random func() uint8
}

// Option configures a CPU.
type Option func(*CPU)

// WithStackDepth bounds the call stack, values <= 0 select DefaultStackDepth.
func WithStackDepth(depth int) Option {
	return func(c *CPU) {
		if depth > 0 {
			c.stackDepth = depth
		}
	}
}

// WithRandom replaces the source of CXKK random bytes.
func WithRandom(random func() uint8) Option {
	return func(c *CPU) {
		if random != nil {
			c.random = random
		}
	}
}

func defaultRandom() uint8 {
	return uint8(rand.UintN(256))
}

// New returns a CPU in its power-on state.
func New(mem *memory.Memory, fb *video.FrameBuffer, keys Keypad, opts ...Option) *CPU {
	c := &CPU{
		mem:        mem,
		fb:         fb,
		keys:       keys,
		random:     defaultRandom,
		stackDepth: DefaultStackDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset clears all registers, empties the stack and sets the PC to the program start.
func (c *CPU) Reset() {
	c.v = [16]uint8{}
	c.i = 0
	c.pc = memory.ProgramStart
	c.dt = 0
	c.st = 0
	c.stack = make([]uint16, 0, c.stackDepth)
	c.currentOpcode = 0
	c.cycles = 0
}

// Exec fetches, decodes and executes the instruction at PC.
// The PC is advanced before the handler runs, handlers that jump overwrite it.
// On error the PC is left on the faulting instruction.
func (c *CPU) Exec() error {
	if c.pc > lastFetchAddress {
		return fmt.Errorf("%w: PC = 0x%04X", ErrPCOutOfBounds, c.pc)
	}

	op := Opcode(c.mem.ReadWord(c.pc))
	c.currentOpcode = op

	instruction := Decode(op)
	if instruction == nil {
		return fmt.Errorf("%w %s at 0x%04X", ErrUnknownOpcode, op, c.pc)
	}

	c.pc += instructionWidth
	if err := instruction(c, op); err != nil {
		c.pc -= instructionWidth
		return err
	}

	c.cycles++
	return nil
}

// TickTimers decrements the delay and sound timers, saturating at zero.
func (c *CPU) TickTimers() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

func (c *CPU) skip() {
	c.pc += instructionWidth
}

func (c *CPU) push(address uint16) error {
	if len(c.stack) >= c.stackDepth {
		return fmt.Errorf("%w: depth %d", ErrStackOverflow, c.stackDepth)
	}
	c.stack = append(c.stack, address)
	return nil
}

func (c *CPU) pop() (uint16, error) {
	if len(c.stack) == 0 {
		return 0, ErrStackUnderflow
	}
	address := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return address, nil
}

// V returns a copy of the general purpose registers.
func (c *CPU) V() [16]uint8 { return c.v }

// I returns the index register.
func (c *CPU) I() uint16 { return c.i }

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.pc }

// DT returns the delay timer.
func (c *CPU) DT() uint8 { return c.dt }

// ST returns the sound timer.
func (c *CPU) ST() uint8 { return c.st }

// SP returns the amount of return addresses on the stack.
func (c *CPU) SP() int { return len(c.stack) }

// Stack returns a copy of the call stack, oldest entry first.
func (c *CPU) Stack() []uint16 {
	return append([]uint16(nil), c.stack...)
}

// CurrentOpcode returns the last fetched opcode.
func (c *CPU) CurrentOpcode() Opcode { return c.currentOpcode }

// Cycles returns the amount of successfully executed instructions since reset.
func (c *CPU) Cycles() uint64 { return c.cycles }
