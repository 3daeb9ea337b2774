package cpu

// AddressingMode selects how an instruction finds its operand
type AddressingMode int

const (
	Implied AddressingMode = iota
	Immediate
	ZeroPage
	Absolute
)

func (m AddressingMode) String() string {
	switch m {
	case Implied:
		return "implied"
	case Immediate:
		return "immediate"
	case ZeroPage:
		return "zero-page"
	case Absolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// operandBytes is the instruction length implied by the mode, opcode included
func (m AddressingMode) operandBytes() uint8 {
	switch m {
	case Immediate, ZeroPage:
		return 2
	case Absolute:
		return 3
	default:
		return 1
	}
}

// Instruction represents a decoded 6502 instruction
type Instruction struct {
	Name   string
	Opcode uint8
	Bytes  uint8
	Cycles uint8
	Mode   AddressingMode

	// execute runs the operation against the resolved operand address and
	// returns any cycles beyond the base cost
	execute func(cpu *CPU, address uint16) uint8
}

var opcodeTable = buildOpcodeTable()

// Lookup returns the table entry for an opcode
func Lookup(opcode uint8) (*Instruction, bool) {
	instruction := opcodeTable[opcode]
	return instruction, instruction != nil
}

func buildOpcodeTable() *[256]*Instruction {
	var table [256]*Instruction

	add := func(name string, opcode uint8, cycles uint8, mode AddressingMode, execute func(*CPU, uint16) uint8) {
		table[opcode] = &Instruction{
			Name:    name,
			Opcode:  opcode,
			Bytes:   mode.operandBytes(),
			Cycles:  cycles,
			Mode:    mode,
			execute: execute,
		}
	}

	// Load/Store Instructions
	add("LDA", 0xA9, 2, Immediate, (*CPU).lda)
	add("LDA", 0xA5, 3, ZeroPage, (*CPU).lda)
	add("LDA", 0xAD, 4, Absolute, (*CPU).lda)
	add("LDX", 0xA2, 2, Immediate, (*CPU).ldx)
	add("STA", 0x85, 3, ZeroPage, (*CPU).sta)
	add("STA", 0x8D, 4, Absolute, (*CPU).sta)

	// Arithmetic Instructions
	add("ADC", 0x69, 2, Immediate, (*CPU).adc)

	// Increment/Decrement Instructions
	add("INX", 0xE8, 2, Implied, (*CPU).inx)
	add("DEX", 0xCA, 2, Implied, (*CPU).dex)

	// Transfer Instructions
	add("TXS", 0x9A, 2, Implied, (*CPU).txs)
	add("TSX", 0xBA, 2, Implied, (*CPU).tsx)

	// Stack Instructions
	add("PHA", 0x48, 3, Implied, (*CPU).pha)
	add("PLA", 0x68, 4, Implied, (*CPU).pla)

	// Flag Instructions
	add("SEI", 0x78, 2, Implied, (*CPU).sei)
	add("CLD", 0xD8, 2, Implied, (*CPU).cld)

	// Jump/Call Instructions
	add("JMP", 0x4C, 3, Absolute, (*CPU).jmp)
	add("JSR", 0x20, 6, Absolute, (*CPU).jsr)
	add("RTS", 0x60, 6, Implied, (*CPU).rts)

	// Miscellaneous Instructions
	add("NOP", 0xEA, 2, Implied, (*CPU).nop)
	add("BRK", 0x00, 7, Implied, (*CPU).brk)

	return &table
}

// Load operations
func (cpu *CPU) lda(address uint16) uint8 {
	cpu.A = cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) ldx(address uint16) uint8 {
	cpu.X = cpu.memory.Read(address)
	cpu.setZN(cpu.X)
	return 0
}

// Store operations
func (cpu *CPU) sta(address uint16) uint8 {
	cpu.memory.Write(address, cpu.A)
	return 0
}

// adc adds with carry in binary mode only. D is ignored and V is left alone.
func (cpu *CPU) adc(address uint16) uint8 {
	value := cpu.memory.Read(address)
	carry := uint16(0)
	if cpu.C {
		carry = 1
	}

	result := uint16(cpu.A) + uint16(value) + carry

	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
	return 0
}

// Increment/Decrement operations
func (cpu *CPU) inx(address uint16) uint8 {
	cpu.X++
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) dex(address uint16) uint8 {
	cpu.X--
	cpu.setZN(cpu.X)
	return 0
}

// Transfer operations
func (cpu *CPU) tsx(address uint16) uint8 {
	cpu.X = cpu.SP
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) txs(address uint16) uint8 {
	cpu.SP = cpu.X
	return 0
}

// Stack operations
func (cpu *CPU) pha(address uint16) uint8 {
	cpu.push(cpu.A)
	return 0
}

func (cpu *CPU) pla(address uint16) uint8 {
	cpu.A = cpu.pop()
	cpu.setZN(cpu.A)
	return 0
}

// Flag operations
func (cpu *CPU) sei(address uint16) uint8 {
	cpu.I = true
	return 0
}

func (cpu *CPU) cld(address uint16) uint8 {
	cpu.D = false
	return 0
}

// Control flow operations
func (cpu *CPU) jmp(address uint16) uint8 {
	cpu.PC = address
	return 0
}

func (cpu *CPU) jsr(address uint16) uint8 {
	// PC already points past the operand; the 6502 pushes one less
	cpu.pushWord(cpu.PC - 1)
	cpu.PC = address
	return 0
}

func (cpu *CPU) rts(address uint16) uint8 {
	cpu.PC = cpu.popWord() + 1
	return 0
}

// Miscellaneous operations
func (cpu *CPU) nop(address uint16) uint8 {
	return 0
}

// brk only marks the break. Vectoring through $FFFE is not emulated; the run
// loop treats BRK as the end of the program.
func (cpu *CPU) brk(address uint16) uint8 {
	cpu.B = true
	return 0
}
