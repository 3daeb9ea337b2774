// Package bus wires a cartridge, the memory map and the CPU into one machine.
package bus

import (
	"log"
	"sort"

	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/memory"
)

// Bus connects all NES components together
type Bus struct {
	// Core components
	CPU       *cpu.CPU
	Memory    *memory.Memory
	Cartridge *cartridge.Cartridge

	// Outcome of the last run
	reason cpu.StopReason
	halted bool

	// Memory monitoring for debugging
	memoryWatchpoints map[uint16]uint8 // Address -> previous value
	watchpointLogging bool
	logger            *log.Logger
}

// StopFunc is consulted before every instruction of RunUntil
type StopFunc func(b *Bus) (bool, error)

// New maps the cartridge's PRG ROM, binds a CPU to it and resets the CPU
func New(cart *cartridge.Cartridge) *Bus {
	bus := &Bus{
		Cartridge:         cart,
		Memory:            memory.New(cart.PRG()),
		memoryWatchpoints: make(map[uint16]uint8),
		logger:            log.Default(),
	}
	bus.CPU = cpu.New(bus.Memory)

	bus.Reset()

	return bus
}

// Reset resets the CPU through the reset vector. RAM keeps its contents.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.reason = cpu.StopBudget
	b.halted = false

	for address := range b.memoryWatchpoints {
		b.memoryWatchpoints[address] = b.Memory.Read(address)
	}
}

// Step executes one CPU instruction
func (b *Bus) Step() (uint64, error) {
	halt := b.Memory.Read(b.CPU.PC) == 0x00
	cycles, err := b.CPU.Step()
	if err != nil {
		b.reason = cpu.StopError
		b.halted = false
		return 0, err
	}
	b.halted = halt
	if halt {
		b.reason = cpu.StopHalt
	}
	b.CheckMemoryWatchpoints()
	return cycles, nil
}

// Run executes until BRK, an error or maxSteps instructions. A negative
// maxSteps means no budget.
func (b *Bus) Run(maxSteps int) (int, error) {
	steps, _, err := b.RunUntil(maxSteps, nil)
	return steps, err
}

// RunUntil is Run with a stop predicate checked before each instruction.
// It returns the instructions executed and why the run ended.
func (b *Bus) RunUntil(maxSteps int, stop StopFunc) (int, cpu.StopReason, error) {
	var cpuStop cpu.StopFunc
	if stop != nil || b.watchpointLogging {
		cpuStop = func(*cpu.CPU) (bool, error) {
			b.CheckMemoryWatchpoints()
			if stop == nil {
				return false, nil
			}
			return stop(b)
		}
	}

	steps, reason, err := b.CPU.RunUntil(maxSteps, cpuStop)
	b.CheckMemoryWatchpoints()

	b.reason = reason
	b.halted = reason == cpu.StopHalt
	return steps, reason, err
}

// Halted reports whether the last instruction executed was BRK
func (b *Bus) Halted() bool {
	return b.halted
}

// Registers returns a copy of the CPU register file
func (b *Bus) Registers() cpu.Registers {
	return b.CPU.Registers()
}

// Cycles returns the CPU cycle count
func (b *Bus) Cycles() uint64 {
	return b.CPU.Cycles()
}

// Steps returns the number of instructions executed
func (b *Bus) Steps() uint64 {
	return b.CPU.Steps()
}

// Peek reads memory the way the CPU sees it
func (b *Bus) Peek(address uint16) uint8 {
	return b.Memory.Read(address)
}

// Snapshot is a point-in-time copy of the machine state
type Snapshot struct {
	Registers   cpu.Registers
	Flags       string
	Cycles      uint64
	Steps       uint64
	Reason      cpu.StopReason
	Halted      bool
	Instruction string // disassembly at PC
	ZeroPage    [0x100]uint8
	Stack       [0x100]uint8
}

// Snapshot returns the current machine state
func (b *Bus) Snapshot() Snapshot {
	ram := b.Memory.RAM()
	snapshot := Snapshot{
		Registers: b.CPU.Registers(),
		Flags:     b.CPU.FlagsString(),
		Cycles:    b.CPU.Cycles(),
		Steps:     b.CPU.Steps(),
		Reason:    b.reason,
		Halted:    b.halted,
	}
	snapshot.Instruction, _ = cpu.Disassemble(b.Memory, b.CPU.PC)
	copy(snapshot.ZeroPage[:], ram[0x000:0x100])
	copy(snapshot.Stack[:], ram[0x100:0x200])
	return snapshot
}

// SetLogger redirects bus and CPU log output. nil restores log.Default().
func (b *Bus) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	b.logger = logger
	b.CPU.SetLogger(logger)
}

// AddMemoryWatchpoint adds a memory address to monitor for changes
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	b.memoryWatchpoints[address] = b.Memory.Read(address)
}

// Watchpoints returns the watched addresses in ascending order
func (b *Bus) Watchpoints() []uint16 {
	addresses := make([]uint16, 0, len(b.memoryWatchpoints))
	for address := range b.memoryWatchpoints {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i] < addresses[j] })
	return addresses
}

// EnableWatchpointLogging enables/disables memory watchpoint logging
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// CheckMemoryWatchpoints checks all watchpoints for changes and logs them
func (b *Bus) CheckMemoryWatchpoints() {
	if !b.watchpointLogging {
		return
	}

	for _, address := range b.Watchpoints() {
		previousValue := b.memoryWatchpoints[address]
		currentValue := b.Memory.Read(address)
		if currentValue != previousValue {
			b.logger.Printf("[MEMORY_WATCH] Step %d: $%04X changed from $%02X to $%02X (%s)",
				b.CPU.Steps(), address, previousValue, currentValue, describeAddress(address))
			b.memoryWatchpoints[address] = currentValue
		}
	}
}

// describeAddress returns a human-readable description of memory addresses
func describeAddress(address uint16) string {
	switch {
	case address < 0x0100:
		return "zero page"
	case address < 0x0200:
		return "stack"
	case address < 0x0800:
		return "RAM"
	case address < 0x2000:
		return "RAM mirror"
	case address >= 0x8000:
		return "PRG ROM"
	default:
		return "unmapped"
	}
}

// EnableCPUDebug enables/disables CPU trace logging and loop detection
func (b *Bus) EnableCPUDebug(tracing, loops bool) {
	b.CPU.EnableDebugLogging(tracing)
	b.CPU.EnableLoopDetection(loops)
}
