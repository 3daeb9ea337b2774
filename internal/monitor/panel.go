package monitor

import (
	"fmt"
	"strings"

	"nescore/internal/bus"
)

// minWideWidth is the narrowest panel that fits 16 bytes per dump row
const minWideWidth = 56

// FormatSnapshot renders registers, flags, the next instruction, zero page
// and the live part of the stack as text no wider than width columns where
// possible.
func FormatSnapshot(s bus.Snapshot, width int) string {
	perRow := 8
	if width >= minWideWidth {
		perRow = 16
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s  steps=%d cycles=%d  [%s]\n", s.Registers, s.Steps, s.Cycles, s.Reason)
	fmt.Fprintf(&sb, "NV-BDIZC %s  next: %s\n", s.Flags, s.Instruction)

	sb.WriteString("\nZero page\n")
	dump(&sb, s.ZeroPage[:], 0x0000, perRow)

	sb.WriteString("\nStack\n")
	top := int(s.Registers.SP) + 1
	if top > 0xFF {
		sb.WriteString("(empty)\n")
	} else {
		start := top &^ (perRow - 1)
		dump(&sb, s.Stack[start:], 0x0100+uint16(start), perRow)
	}

	return sb.String()
}

func dump(sb *strings.Builder, data []uint8, base uint16, perRow int) {
	for row := 0; row < len(data); row += perRow {
		fmt.Fprintf(sb, "%04X:", int(base)+row)
		for i := row; i < row+perRow && i < len(data); i++ {
			fmt.Fprintf(sb, " %02X", data[i])
		}
		sb.WriteByte('\n')
	}
}
