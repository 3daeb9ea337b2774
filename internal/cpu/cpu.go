// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import (
	"fmt"
	"log"
)

// CPU constants
const (
	// Stack base address
	stackBase = 0x0100
	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01
	// Reset vector
	resetVector = 0xFFFC
	// Power-up stack pointer
	resetSP = 0xFD
	// BRK ends a run
	haltOpcode = 0x00
)

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags. Bit 5 has no storage and always reads as 1.
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (no arithmetic effect on the NES)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	// Cycle and instruction counters
	cycles uint64
	steps  uint64

	// Debug and loop detection
	logger              *log.Logger
	enableDebugLogging  bool
	enableLoopDetection bool
	lastPC              uint16
	pcStayCount         int
}

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// StopReason tells why RunUntil returned without an error.
type StopReason int

const (
	// StopBudget means the step budget ran out.
	StopBudget StopReason = iota
	// StopHalt means BRK was executed.
	StopHalt
	// StopCondition means the stop predicate returned true.
	StopCondition
	// StopError means an instruction or the stop predicate failed.
	StopError
)

func (r StopReason) String() string {
	switch r {
	case StopBudget:
		return "budget"
	case StopHalt:
		return "halt"
	case StopCondition:
		return "condition"
	case StopError:
		return "error"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// StopFunc is consulted before every instruction of RunUntil. Returning true
// ends the run without executing the next instruction.
type StopFunc func(cpu *CPU) (bool, error)

// New creates a new CPU bound to memory. Call Reset before stepping.
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     resetSP,
		I:      true,
		logger: log.Default(),
	}
}

// Reset loads the power-up stack pointer and status and jumps through the
// reset vector. A, X and Y keep their values.
func (cpu *CPU) Reset() {
	cpu.SP = resetSP
	cpu.SetStatusByte(unusedMask | iFlagMask)
	cpu.PC = cpu.readWord(resetVector)
	cpu.pcStayCount = 0
}

// Step executes a single instruction and returns the cycles it took.
//
// An opcode without a table entry returns *UnsupportedOpcodeError. In that
// case only the opcode fetch has happened: PC has moved past it and nothing
// else changed.
func (cpu *CPU) Step() (uint64, error) {
	currentPC := cpu.PC
	opcode := cpu.fetch()
	instruction, ok := Lookup(opcode)

	if cpu.enableLoopDetection {
		cpu.detectInfiniteLoop(currentPC, opcode)
	}
	if cpu.enableDebugLogging {
		cpu.logInstruction(currentPC)
	}

	if !ok {
		return 0, &UnsupportedOpcodeError{Opcode: opcode, PC: currentPC}
	}

	address := cpu.operandAddress(instruction.Mode)
	extraCycles := instruction.execute(cpu, address)

	totalCycles := uint64(instruction.Cycles + extraCycles)
	cpu.cycles += totalCycles
	cpu.steps++
	return totalCycles, nil
}

// Run executes instructions until BRK, the step budget or an error.
// A negative maxSteps means no budget. BRK is executed and counted.
func (cpu *CPU) Run(maxSteps int) (int, error) {
	steps, _, err := cpu.RunUntil(maxSteps, nil)
	return steps, err
}

// RunUntil is Run with an optional stop predicate checked before each
// instruction.
func (cpu *CPU) RunUntil(maxSteps int, stop StopFunc) (int, StopReason, error) {
	steps := 0
	for maxSteps < 0 || steps < maxSteps {
		if stop != nil {
			done, err := stop(cpu)
			if err != nil {
				return steps, StopError, err
			}
			if done {
				return steps, StopCondition, nil
			}
		}

		halt := cpu.memory.Read(cpu.PC) == haltOpcode
		if _, err := cpu.Step(); err != nil {
			return steps, StopError, err
		}
		steps++

		if halt {
			return steps, StopHalt, nil
		}
	}
	return steps, StopBudget, nil
}

// Cycles returns the number of cycles executed since construction
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// Steps returns the number of instructions executed since construction
func (cpu *CPU) Steps() uint64 {
	return cpu.steps
}

// operandAddress consumes the operand bytes of the addressing mode and
// returns the effective address. Immediate operands resolve to the address of
// the operand byte itself.
func (cpu *CPU) operandAddress(mode AddressingMode) uint16 {
	switch mode {
	case Immediate:
		address := cpu.PC
		cpu.PC++
		return address

	case ZeroPage:
		return uint16(cpu.fetch())

	case Absolute:
		return cpu.fetchWord()

	default:
		// Implied
		return 0
	}
}

// fetch reads the byte at PC and advances PC with 16-bit wraparound
func (cpu *CPU) fetch() uint8 {
	value := cpu.memory.Read(cpu.PC)
	cpu.PC++
	return value
}

func (cpu *CPU) fetchWord() uint16 {
	low := uint16(cpu.fetch())
	high := uint16(cpu.fetch())
	return (high << 8) | low
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return (high << 8) | low
}

// Stack operations
func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))   // High byte first
	cpu.push(uint8(value & 0xFF)) // Low byte second
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return (high << 8) | low
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = (value & nFlagMask) != 0
}

// GetStatusByte returns the status register as a byte
func (cpu *CPU) GetStatusByte() uint8 {
	var status uint8
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	// Bit 5 is always set (unused)
	status |= unusedMask
	if cpu.B {
		status |= bFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte sets the status register from a byte
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = (status & nFlagMask) != 0
	cpu.V = (status & vFlagMask) != 0
	cpu.B = (status & bFlagMask) != 0
	cpu.D = (status & dFlagMask) != 0
	cpu.I = (status & iFlagMask) != 0
	cpu.Z = (status & zFlagMask) != 0
	cpu.C = (status & cFlagMask) != 0
}

// Registers is a copy of the register file.
type Registers struct {
	A, X, Y, SP uint8
	PC          uint16
	Status      uint8
}

// Registers returns a copy of the register file
func (cpu *CPU) Registers() Registers {
	return Registers{
		A:      cpu.A,
		X:      cpu.X,
		Y:      cpu.Y,
		SP:     cpu.SP,
		PC:     cpu.PC,
		Status: cpu.GetStatusByte(),
	}
}

func (r Registers) String() string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X SP=%02X PC=%04X STATUS=%02X",
		r.A, r.X, r.Y, r.SP, r.PC, r.Status)
}
