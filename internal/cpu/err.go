package cpu

import (
	"errors"

	"nescore/internal/translate"
)

var f = translate.From

// ErrUnsupportedOpcode matches any opcode without a table entry.
var ErrUnsupportedOpcode = errors.New(f("unsupported opcode"))

// UnsupportedOpcodeError carries the opcode that stopped execution and the
// address it was fetched from.
type UnsupportedOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (err *UnsupportedOpcodeError) Error() string {
	return f("unsupported opcode $%02X at $%04X", err.Opcode, err.PC)
}

func (err *UnsupportedOpcodeError) Is(target error) bool {
	return target == ErrUnsupportedOpcode
}
