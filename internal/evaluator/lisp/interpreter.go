package lisp

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"replconsole/internal/session"
)

const maxDepth = 2000

// Interpreter 在多次求值之间保留全局环境；print/println 写入 out。
type Interpreter struct {
	global *Env
	out    io.Writer
	depth  int
}

func New(out io.Writer) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	in := &Interpreter{global: NewEnv(nil), out: out}
	in.setupBuiltins()
	return in
}

// Evaluate 解析并依次求值 command 中的全部顶层表达式，返回最后一个值。
// nil 结果视为没有值。
func (in *Interpreter) Evaluate(ctx context.Context, command string) (session.Outcome, error) {
	exprs, err := Parse(command)
	if err != nil {
		return session.Outcome{}, err
	}
	last := Nil()
	for _, expr := range exprs {
		in.depth = 0
		v, err := in.Eval(ctx, expr, in.global)
		if err != nil {
			return session.Outcome{}, err
		}
		last = v
	}
	if last.IsNil() {
		return session.NoValue(), nil
	}
	return session.Value(last.String()), nil
}

// Lookup 返回全局绑定。
func (in *Interpreter) Lookup(name string) (Value, bool) {
	return in.global.Get(name)
}

func (in *Interpreter) Eval(ctx context.Context, expr Value, env *Env) (Value, error) {
	switch expr.Type {
	case TypeSymbol:
		if v, ok := env.Get(expr.Symbol); ok {
			return v, nil
		}
		return Nil(), fmt.Errorf("unbound symbol: %s", expr.Symbol)
	case TypeList:
		if len(expr.List) == 0 {
			return expr, nil
		}
	default:
		return expr, nil
	}

	in.depth++
	defer func() { in.depth-- }()
	if in.depth > maxDepth {
		return Nil(), fmt.Errorf("recursion too deep")
	}

	head := expr.List[0]
	args := expr.List[1:]
	if head.IsSymbol() {
		if form, ok := specialForms[head.Symbol]; ok {
			return form(in, ctx, args, env)
		}
	}

	fn, err := in.Eval(ctx, head, env)
	if err != nil {
		return Nil(), err
	}
	vals := make([]Value, len(args))
	for i, a := range args {
		if vals[i], err = in.Eval(ctx, a, env); err != nil {
			return Nil(), err
		}
	}
	return in.apply(ctx, fn, vals)
}

func (in *Interpreter) apply(ctx context.Context, fn Value, args []Value) (Value, error) {
	switch fn.Type {
	case TypeBuiltin:
		return fn.Builtin.Fn(in, args)
	case TypeFunc:
		f := fn.Func
		if len(args) != len(f.Params) {
			return Nil(), arityError(fn.String(), len(f.Params), len(args))
		}
		env := NewEnv(f.Env)
		for i, p := range f.Params {
			env.Set(p, args[i])
		}
		return in.evalBody(ctx, f.Body, env)
	default:
		return Nil(), fmt.Errorf("not a function: %s", fn.String())
	}
}

func (in *Interpreter) evalBody(ctx context.Context, body []Value, env *Env) (Value, error) {
	result := Nil()
	for _, expr := range body {
		v, err := in.Eval(ctx, expr, env)
		if err != nil {
			return Nil(), err
		}
		result = v
	}
	return result, nil
}

type specialForm func(in *Interpreter, ctx context.Context, args []Value, env *Env) (Value, error)

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"quote":   formQuote,
		"if":      formIf,
		"do":      formDo,
		"define":  formDefine,
		"fn":      formFn,
		"range":   formRange,
		"print":   formPrint(false),
		"println": formPrint(true),
	}
}

func formQuote(_ *Interpreter, _ context.Context, args []Value, _ *Env) (Value, error) {
	if len(args) != 1 {
		return Nil(), arityError("quote", 1, len(args))
	}
	return args[0], nil
}

func formIf(in *Interpreter, ctx context.Context, args []Value, env *Env) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return Nil(), fmt.Errorf("if: expected 2 or 3 arguments, got %d", len(args))
	}
	cond, err := in.Eval(ctx, args[0], env)
	if err != nil {
		return Nil(), err
	}
	if cond.IsTruthy() {
		return in.Eval(ctx, args[1], env)
	}
	if len(args) == 3 {
		return in.Eval(ctx, args[2], env)
	}
	return Nil(), nil
}

func formDo(in *Interpreter, ctx context.Context, args []Value, env *Env) (Value, error) {
	return in.evalBody(ctx, args, env)
}

// formDefine 支持 (define name expr) 与 (define (name params...) body...)。
// 返回 nil，所以定义不会产生结果条目。
func formDefine(in *Interpreter, ctx context.Context, args []Value, env *Env) (Value, error) {
	if len(args) < 2 {
		return Nil(), fmt.Errorf("define: expected at least 2 arguments, got %d", len(args))
	}
	target := args[0]
	if target.IsList() {
		if len(target.List) == 0 || !target.List[0].IsSymbol() {
			return Nil(), fmt.Errorf("define: function name must be a symbol")
		}
		params, err := paramNames(target.List[1:])
		if err != nil {
			return Nil(), err
		}
		name := target.List[0].Symbol
		env.Set(name, Value{Type: TypeFunc, Func: &Function{Name: name, Params: params, Body: args[1:], Env: env}})
		return Nil(), nil
	}
	if !target.IsSymbol() || len(args) != 2 {
		return Nil(), fmt.Errorf("define: expected (define name value)")
	}
	v, err := in.Eval(ctx, args[1], env)
	if err != nil {
		return Nil(), err
	}
	if v.Type == TypeFunc && v.Func.Name == "" {
		v.Func.Name = target.Symbol
	}
	env.Set(target.Symbol, v)
	return Nil(), nil
}

func formFn(_ *Interpreter, _ context.Context, args []Value, env *Env) (Value, error) {
	if len(args) < 2 || !args[0].IsList() {
		return Nil(), fmt.Errorf("fn: expected (fn (params...) body...)")
	}
	params, err := paramNames(args[0].List)
	if err != nil {
		return Nil(), err
	}
	return Value{Type: TypeFunc, Func: &Function{Params: params, Body: args[1:], Env: env}}, nil
}

// formRange 求值 (range (var (lo hi)) body...)，var 依次取 [lo, hi)。
// (range (var n) body...) 等价于 lo 为 0。
func formRange(in *Interpreter, ctx context.Context, args []Value, env *Env) (Value, error) {
	if len(args) < 1 || !args[0].IsList() || len(args[0].List) != 2 || !args[0].List[0].IsSymbol() {
		return Nil(), fmt.Errorf("range: expected (range (var (lo hi)) body...)")
	}
	name := args[0].List[0].Symbol
	bounds := args[0].List[1]

	var lo, hi Value
	var err error
	if bounds.IsList() {
		if len(bounds.List) != 2 {
			return Nil(), fmt.Errorf("range: bounds must be (lo hi)")
		}
		if lo, err = in.Eval(ctx, bounds.List[0], env); err != nil {
			return Nil(), err
		}
		if hi, err = in.Eval(ctx, bounds.List[1], env); err != nil {
			return Nil(), err
		}
	} else {
		lo = Num(0)
		if hi, err = in.Eval(ctx, bounds, env); err != nil {
			return Nil(), err
		}
	}
	if lo.Type != TypeNumber || hi.Type != TypeNumber {
		return Nil(), fmt.Errorf("range: bounds must be numbers, got %s and %s", lo.Type, hi.Type)
	}

	for i := int64(lo.Number); i < int64(hi.Number); i++ {
		if err := ctx.Err(); err != nil {
			return Nil(), err
		}
		loopEnv := NewEnv(env)
		loopEnv.Set(name, Num(float64(i)))
		if _, err := in.evalBody(ctx, args[1:], loopEnv); err != nil {
			return Nil(), err
		}
	}
	return Nil(), nil
}

var interpolation = regexp.MustCompile(`\{([^{}\s]+)\}`)

// formPrint 把参数以空格连接写入输出。字符串参数中的 {name} 会替换为
// 当前作用域里 name 的值；未绑定的保持原样。
func formPrint(newline bool) specialForm {
	return func(in *Interpreter, ctx context.Context, args []Value, env *Env) (Value, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			v, err := in.Eval(ctx, a, env)
			if err != nil {
				return Nil(), err
			}
			if v.Type == TypeString {
				parts = append(parts, interpolate(v.Str, env))
				continue
			}
			parts = append(parts, v.Display())
		}
		text := strings.Join(parts, " ")
		if newline {
			text += "\n"
		}
		if _, err := io.WriteString(in.out, text); err != nil {
			return Nil(), err
		}
		return Nil(), nil
	}
}

func interpolate(s string, env *Env) string {
	return interpolation.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := env.Get(m[1 : len(m)-1]); ok {
			return v.Display()
		}
		return m
	})
}

func paramNames(items []Value) ([]string, error) {
	params := make([]string, 0, len(items))
	for _, p := range items {
		if !p.IsSymbol() {
			return nil, fmt.Errorf("parameter must be a symbol, got %s", p.String())
		}
		params = append(params, p.Symbol)
	}
	return params, nil
}

func arityError(name string, want, got int) error {
	return fmt.Errorf("%s: expected %d arguments, got %d", name, want, got)
}
