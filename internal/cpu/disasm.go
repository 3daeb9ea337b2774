package cpu

import "fmt"

// Disassemble decodes the instruction at address without executing it and
// returns its text and length in bytes. Unknown opcodes render as a .byte
// directive one byte long.
func Disassemble(memory MemoryInterface, address uint16) (string, uint16) {
	opcode := memory.Read(address)
	instruction, ok := Lookup(opcode)
	if !ok {
		return fmt.Sprintf(".byte $%02X", opcode), 1
	}

	switch instruction.Mode {
	case Immediate:
		return fmt.Sprintf("%s #$%02X", instruction.Name, memory.Read(address+1)), uint16(instruction.Bytes)
	case ZeroPage:
		return fmt.Sprintf("%s $%02X", instruction.Name, memory.Read(address+1)), uint16(instruction.Bytes)
	case Absolute:
		low := uint16(memory.Read(address + 1))
		high := uint16(memory.Read(address + 2))
		return fmt.Sprintf("%s $%04X", instruction.Name, high<<8|low), uint16(instruction.Bytes)
	default:
		return instruction.Name, uint16(instruction.Bytes)
	}
}
