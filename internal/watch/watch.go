// Package watch evaluates Starlark stop conditions against a running machine.
//
// A condition is a single expression over the predeclared names
//
//	a x y sp pc status cycles steps
//
// and the builtin mem(addr), which reads memory the way the CPU sees it.
// The run stops before the first instruction at which the expression is true.
package watch

import (
	"nescore/internal/cpu"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Machine is the state a condition can see
type Machine interface {
	Registers() cpu.Registers
	Cycles() uint64
	Steps() uint64
	Peek(address uint16) uint8
}

const machineKey = "watch.machine"

var names = []string{"a", "x", "y", "sp", "pc", "status", "cycles", "steps", "mem"}

var mem = starlark.NewBuiltin("mem", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var address int
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &address); err != nil {
		return nil, err
	}
	if address < 0 || address > 0xFFFF {
		return nil, ErrAddressRange(address)
	}
	machine := thread.Local(machineKey).(Machine)
	return starlark.MakeInt(int(machine.Peek(uint16(address)))), nil
})

// Condition is a compiled stop expression
type Condition struct {
	expr    string
	program *starlark.Program
	thread  *starlark.Thread
}

// Compile parses and compiles expr. Unknown names are rejected here rather
// than on the first evaluation.
func Compile(expr string) (*Condition, error) {
	opts := syntax.FileOptions{}
	src := "rc = " + expr + "\n"
	_, program, err := starlark.SourceProgramOptions(&opts, "until", src, isPredeclared)
	if err != nil {
		return nil, &ConditionError{Expr: expr, Err: err}
	}

	return &Condition{
		expr:    expr,
		program: program,
		thread:  &starlark.Thread{Name: "until"},
	}, nil
}

func isPredeclared(name string) bool {
	for _, known := range names {
		if name == known {
			return true
		}
	}
	return false
}

// Eval reports whether the condition holds for the machine's current state
func (c *Condition) Eval(machine Machine) (bool, error) {
	regs := machine.Registers()
	predeclared := starlark.StringDict{
		"a":      starlark.MakeInt(int(regs.A)),
		"x":      starlark.MakeInt(int(regs.X)),
		"y":      starlark.MakeInt(int(regs.Y)),
		"sp":     starlark.MakeInt(int(regs.SP)),
		"pc":     starlark.MakeInt(int(regs.PC)),
		"status": starlark.MakeInt(int(regs.Status)),
		"cycles": starlark.MakeUint64(machine.Cycles()),
		"steps":  starlark.MakeUint64(machine.Steps()),
		"mem":    mem,
	}

	c.thread.SetLocal(machineKey, machine)
	globals, err := c.program.Init(c.thread, predeclared)
	if err != nil {
		return false, &ConditionError{Expr: c.expr, Err: err}
	}

	return bool(globals["rc"].Truth()), nil
}

func (c *Condition) String() string {
	return c.expr
}
