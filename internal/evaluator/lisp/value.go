// Package lisp is a small s-expression language used as the console's
// default evaluator.
package lisp

import (
	"fmt"
	"strconv"
	"strings"
)

type ValueType int

const (
	TypeNil ValueType = iota
	TypeSymbol
	TypeNumber
	TypeString
	TypeBool
	TypeList
	TypeFunc
	TypeBuiltin
)

type Value struct {
	Type    ValueType
	Symbol  string
	Number  float64
	Str     string
	Bool    bool
	List    []Value
	Func    *Function
	Builtin *Builtin
}

// Function 是 fn / define 创建的闭包。
type Function struct {
	Name   string
	Params []string
	Body   []Value
	Env    *Env
}

// Builtin 是内置函数，参数已求值。
type Builtin struct {
	Name string
	Fn   func(in *Interpreter, args []Value) (Value, error)
}

func Nil() Value               { return Value{Type: TypeNil} }
func Sym(s string) Value       { return Value{Type: TypeSymbol, Symbol: s} }
func Num(n float64) Value      { return Value{Type: TypeNumber, Number: n} }
func Str(s string) Value       { return Value{Type: TypeString, Str: s} }
func Bool(b bool) Value        { return Value{Type: TypeBool, Bool: b} }
func Lst(items ...Value) Value { return Value{Type: TypeList, List: items} }

func (v Value) IsNil() bool    { return v.Type == TypeNil }
func (v Value) IsSymbol() bool { return v.Type == TypeSymbol }
func (v Value) IsList() bool   { return v.Type == TypeList }

func (v Value) IsTruthy() bool {
	switch v.Type {
	case TypeNil:
		return false
	case TypeBool:
		return v.Bool
	case TypeNumber:
		return v.Number != 0
	case TypeString:
		return v.Str != ""
	case TypeList:
		return len(v.List) > 0
	default:
		return true
	}
}

// String 返回值的可读形式，字符串带引号。
func (v Value) String() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeSymbol:
		return v.Symbol
	case TypeNumber:
		return formatNumber(v.Number)
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case TypeFunc:
		if v.Func.Name != "" {
			return fmt.Sprintf("<fn %s>", v.Func.Name)
		}
		return "<fn>"
	case TypeBuiltin:
		return fmt.Sprintf("<builtin %s>", v.Builtin.Name)
	default:
		return "<unknown>"
	}
}

// Display 与 String 相同，但字符串不加引号；println 使用它。
func (v Value) Display() string {
	if v.Type == TypeString {
		return v.Str
	}
	return v.String()
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeSymbol:
		return "symbol"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeList:
		return "list"
	case TypeFunc, TypeBuiltin:
		return "function"
	default:
		return "unknown"
	}
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeNumber:
		return a.Number == b.Number
	case TypeString:
		return a.Str == b.Str
	case TypeSymbol:
		return a.Symbol == b.Symbol
	case TypeBool:
		return a.Bool == b.Bool
	case TypeNil:
		return true
	case TypeList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !valuesEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}
