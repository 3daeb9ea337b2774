package cpu

import "log"

// loopThreshold is how many consecutive fetches from one PC count as a loop
const loopThreshold = 100

// SetLogger redirects trace and loop messages. nil restores log.Default().
func (cpu *CPU) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	cpu.logger = logger
}

// EnableDebugLogging enables/disables CPU instruction logging
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableLoopDetection enables/disables infinite loop detection
func (cpu *CPU) EnableLoopDetection(enable bool) {
	cpu.enableLoopDetection = enable
	cpu.pcStayCount = 0
}

// detectInfiniteLoop reports once when the CPU keeps fetching from the same
// PC, the usual "JMP *" idle loop, then every 1000 repeats after that.
func (cpu *CPU) detectInfiniteLoop(pc uint16, opcode uint8) {
	if pc != cpu.lastPC {
		cpu.lastPC = pc
		cpu.pcStayCount = 0
		return
	}

	cpu.pcStayCount++
	if cpu.pcStayCount == loopThreshold || (cpu.pcStayCount > loopThreshold && cpu.pcStayCount%1000 == 0) {
		cpu.logger.Printf("[CPU_LOOP] CPU stuck at PC=$%04X executing opcode=0x%02X for %d steps | %s | Cycles=%d",
			pc, opcode, cpu.pcStayCount, cpu.getFlagsString(), cpu.cycles)
	}
}

// logInstruction logs the instruction about to execute at pc
func (cpu *CPU) logInstruction(pc uint16) {
	text, _ := Disassemble(cpu.memory, pc)
	cpu.logger.Printf("[CPU_TRACE] PC=$%04X: %-12s | A=$%02X X=$%02X Y=$%02X SP=$%02X | %s",
		pc, text, cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.getFlagsString())
}

// getFlagsString returns CPU flags as string
func (cpu *CPU) getFlagsString() string {
	flags := []byte("NV-BDIZC")
	for i, set := range []bool{cpu.N, cpu.V, true, cpu.B, cpu.D, cpu.I, cpu.Z, cpu.C} {
		if !set {
			flags[i] = '-'
		}
	}
	return string(flags)
}

// FlagsString returns the status flags as NV-BDIZC with clear flags as '-'
func (cpu *CPU) FlagsString() string {
	return cpu.getFlagsString()
}
