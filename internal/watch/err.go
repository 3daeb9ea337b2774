package watch

import (
	"errors"
	"fmt"

	"nescore/internal/translate"
)

var f = translate.From

// ErrCondition matches any failure to compile or evaluate a condition.
var ErrCondition = errors.New(f("invalid stop condition"))

// ConditionError wraps the Starlark error with the expression text.
type ConditionError struct {
	Expr string
	Err  error
}

func (err *ConditionError) Error() string {
	return f("stop condition %q: %v", err.Expr, err.Err)
}

func (err *ConditionError) Unwrap() error {
	return err.Err
}

func (err *ConditionError) Is(target error) bool {
	return target == ErrCondition
}

// ErrAddressRange is returned by mem() for addresses outside the CPU space.
type ErrAddressRange int

func (err ErrAddressRange) Error() string {
	return f("mem: address %s outside $0000-$FFFF", fmt.Sprint(int(err)))
}
