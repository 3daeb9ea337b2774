// Package memory implements the CPU-visible NES memory map.
package memory

import "fmt"

const (
	// RAMSize is the size of internal RAM before mirroring.
	RAMSize     = 0x0800
	ramMask     = RAMSize - 1
	ramMirrorTo = 0x2000

	prgBase = 0x8000
	// PRGBankSize is the size of one PRG ROM bank. A single bank is mirrored
	// across the 32KB window.
	PRGBankSize = 0x4000
)

// Memory represents the NES memory map.
//
// Only internal RAM and PRG ROM are mapped. The PPU, APU and I/O register
// space reads as zero and ignores writes.
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [RAMSize]uint8

	// PRG ROM mapped at $8000-$FFFF, never written after construction
	prgROM []uint8
}

// New creates a Memory with zeroed RAM and the given PRG ROM.
// The slice is owned by the Memory afterwards.
func New(prgROM []uint8) *Memory {
	return &Memory{prgROM: prgROM}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	switch {
	case address < ramMirrorTo:
		// Internal RAM (mirrored)
		return m.ram[address&ramMask]

	case address >= prgBase:
		return m.readPRG(address)

	default:
		// PPU/APU/I/O and cartridge expansion space are not emulated
		return 0
	}
}

// Write writes a byte to the given address. Anything outside internal RAM is
// silently discarded, including the ROM window.
func (m *Memory) Write(address uint16, value uint8) {
	if address < ramMirrorTo {
		m.ram[address&ramMask] = value
	}
}

// readPRG maps $8000-$FFFF onto PRG ROM.
//   - 16KB ROMs: $8000-$BFFF mirrors to $C000-$FFFF
//   - anything else: direct mapped
func (m *Memory) readPRG(address uint16) uint8 {
	offset := int(address - prgBase)
	if len(m.prgROM) == PRGBankSize {
		offset %= PRGBankSize
	}
	if offset >= len(m.prgROM) {
		panic(fmt.Sprintf("memory: PRG read $%04X beyond %d byte ROM", address, len(m.prgROM)))
	}
	return m.prgROM[offset]
}

// RAM returns a copy of internal RAM.
func (m *Memory) RAM() [RAMSize]uint8 {
	return m.ram
}
