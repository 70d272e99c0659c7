package lisp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var errDivisionByZero = errors.New("division by zero")

func (in *Interpreter) setupBuiltins() {
	def := func(name string, fn func(*Interpreter, []Value) (Value, error)) {
		in.global.Set(name, Value{Type: TypeBuiltin, Builtin: &Builtin{Name: name, Fn: fn}})
	}
	def("+", builtinAdd)
	def("-", builtinSub)
	def("*", builtinMul)
	def("/", builtinDiv)
	def("%", builtinMod)
	def("=", builtinEq)
	def("!=", builtinNeq)
	def("<", compare("<", func(a, b float64) bool { return a < b }))
	def(">", compare(">", func(a, b float64) bool { return a > b }))
	def("<=", compare("<=", func(a, b float64) bool { return a <= b }))
	def(">=", compare(">=", func(a, b float64) bool { return a >= b }))
	def("not", builtinNot)
	def("concat", builtinConcat)
	def("list", builtinList)
	def("length", builtinLength)
	def("first", builtinFirst)
	def("rest", builtinRest)
}

func numbers(name string, args []Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		if a.Type != TypeNumber {
			return nil, fmt.Errorf("%s: expected number, got %s", name, a.Type)
		}
		out[i] = a.Number
	}
	return out, nil
}

func builtinAdd(_ *Interpreter, args []Value) (Value, error) {
	ns, err := numbers("+", args)
	if err != nil {
		return Nil(), err
	}
	sum := 0.0
	for _, n := range ns {
		sum += n
	}
	return Num(sum), nil
}

func builtinSub(_ *Interpreter, args []Value) (Value, error) {
	ns, err := numbers("-", args)
	if err != nil {
		return Nil(), err
	}
	switch len(ns) {
	case 0:
		return Nil(), fmt.Errorf("-: expected at least 1 argument")
	case 1:
		return Num(-ns[0]), nil
	}
	result := ns[0]
	for _, n := range ns[1:] {
		result -= n
	}
	return Num(result), nil
}

func builtinMul(_ *Interpreter, args []Value) (Value, error) {
	ns, err := numbers("*", args)
	if err != nil {
		return Nil(), err
	}
	product := 1.0
	for _, n := range ns {
		product *= n
	}
	return Num(product), nil
}

func builtinDiv(_ *Interpreter, args []Value) (Value, error) {
	ns, err := numbers("/", args)
	if err != nil {
		return Nil(), err
	}
	if len(ns) < 2 {
		return Nil(), fmt.Errorf("/: expected at least 2 arguments, got %d", len(ns))
	}
	result := ns[0]
	for _, n := range ns[1:] {
		if n == 0 {
			return Nil(), errDivisionByZero
		}
		result /= n
	}
	return Num(result), nil
}

func builtinMod(_ *Interpreter, args []Value) (Value, error) {
	ns, err := numbers("%", args)
	if err != nil {
		return Nil(), err
	}
	if len(ns) != 2 {
		return Nil(), arityError("%", 2, len(ns))
	}
	if ns[1] == 0 {
		return Nil(), errDivisionByZero
	}
	return Num(math.Mod(ns[0], ns[1])), nil
}

func builtinEq(_ *Interpreter, args []Value) (Value, error) {
	if len(args) < 2 {
		return Nil(), fmt.Errorf("=: expected at least 2 arguments, got %d", len(args))
	}
	for _, a := range args[1:] {
		if !valuesEqual(args[0], a) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func builtinNeq(in *Interpreter, args []Value) (Value, error) {
	eq, err := builtinEq(in, args)
	if err != nil {
		return Nil(), err
	}
	return Bool(!eq.Bool), nil
}

func compare(name string, ok func(a, b float64) bool) func(*Interpreter, []Value) (Value, error) {
	return func(_ *Interpreter, args []Value) (Value, error) {
		ns, err := numbers(name, args)
		if err != nil {
			return Nil(), err
		}
		if len(ns) < 2 {
			return Nil(), fmt.Errorf("%s: expected at least 2 arguments, got %d", name, len(ns))
		}
		for i := 1; i < len(ns); i++ {
			if !ok(ns[i-1], ns[i]) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	}
}

func builtinNot(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil(), arityError("not", 1, len(args))
	}
	return Bool(!args[0].IsTruthy()), nil
}

func builtinConcat(_ *Interpreter, args []Value) (Value, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(a.Display())
	}
	return Str(sb.String()), nil
}

func builtinList(_ *Interpreter, args []Value) (Value, error) {
	return Lst(append([]Value(nil), args...)...), nil
}

func builtinLength(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil(), arityError("length", 1, len(args))
	}
	switch a := args[0]; a.Type {
	case TypeList:
		return Num(float64(len(a.List))), nil
	case TypeString:
		return Num(float64(len([]rune(a.Str)))), nil
	case TypeNil:
		return Num(0), nil
	default:
		return Nil(), fmt.Errorf("length: expected list or string, got %s", a.Type)
	}
}

func builtinFirst(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil(), arityError("first", 1, len(args))
	}
	if !args[0].IsList() {
		return Nil(), fmt.Errorf("first: expected list, got %s", args[0].Type)
	}
	if len(args[0].List) == 0 {
		return Nil(), nil
	}
	return args[0].List[0], nil
}

func builtinRest(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil(), arityError("rest", 1, len(args))
	}
	if !args[0].IsList() {
		return Nil(), fmt.Errorf("rest: expected list, got %s", args[0].Type)
	}
	if len(args[0].List) <= 1 {
		return Lst(), nil
	}
	return Lst(args[0].List[1:]...), nil
}
