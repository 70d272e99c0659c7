package lisp

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replconsole/internal/session"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    session.Outcome
		wantOut string
	}{
		{name: "addition", command: "(+ 1 2)", want: session.Value("3")},
		{name: "nested arithmetic", command: "(* (- 10 4) (/ 9 3))", want: session.Value("18")},
		{name: "float", command: "(/ 1 4)", want: session.Value("0.25")},
		{name: "modulo", command: "(% 7 3)", want: session.Value("1")},
		{name: "unary minus", command: "(- 5)", want: session.Value("-5")},
		{name: "comparison chain", command: "(< 1 2 3)", want: session.Value("true")},
		{name: "equality", command: `(= "a" "a")`, want: session.Value("true")},
		{name: "inequality", command: "(!= 1 2)", want: session.Value("true")},
		{name: "if false branch", command: "(if (> 1 2) 1 2)", want: session.Value("2")},
		{name: "if without else", command: "(if false 1)", want: session.NoValue()},
		{name: "string result is quoted", command: `(concat "a" 1 "b")`, want: session.Value(`"a1b"`)},
		{name: "list", command: "(list 1 (+ 1 1) \"x\")", want: session.Value(`(1 2 "x")`)},
		{name: "quote", command: "(quote (a b))", want: session.Value("(a b)")},
		{name: "nil literal has no value", command: "nil", want: session.NoValue()},
		{name: "self-evaluating number", command: "42", want: session.Value("42")},
		{name: "empty command", command: "   ", want: session.NoValue()},
		{name: "comment only", command: "; nothing here", want: session.NoValue()},
		{name: "last form wins", command: "(define x 2) (* x 21)", want: session.Value("42")},
		{name: "do", command: "(do (println \"a\") 7)", want: session.Value("7"), wantOut: "a\n"},
		{name: "print without newline", command: `(print "a" 1 true)`, want: session.NoValue(), wantOut: "a 1 true"},
		{name: "escapes", command: `(print "x\ty\n")`, want: session.NoValue(), wantOut: "x\ty\n"},
		{name: "lambda", command: "((fn (a b) (+ a b)) 3 4)", want: session.Value("7")},
		{name: "length", command: `(length (list 1 2 3))`, want: session.Value("3")},
		{name: "first and rest", command: `(list (first (list 1 2)) (rest (list 1 2)))`, want: session.Value("(1 (2))")},
		{name: "not", command: "(not 0)", want: session.Value("true")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			in := New(out)
			got, err := in.Evaluate(context.Background(), tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOut, out.String())
		})
	}
}

func TestStartupSnippet(t *testing.T) {
	out := &bytes.Buffer{}
	in := New(out)
	got, err := in.Evaluate(context.Background(), `(range (i (0 100)) (println "{i}"))`)
	require.NoError(t, err)
	assert.Equal(t, session.NoValue(), got)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 100)
	assert.Equal(t, "0", lines[0])
	assert.Equal(t, "99", lines[99])
}

func TestInterpolation(t *testing.T) {
	out := &bytes.Buffer{}
	in := New(out)
	_, err := in.Evaluate(context.Background(), `(define name "world") (println "hello {name} {missing}" (+ 1 1))`)
	require.NoError(t, err)
	assert.Equal(t, "hello world {missing} 2\n", out.String())
}

func TestRangeShortForm(t *testing.T) {
	out := &bytes.Buffer{}
	in := New(out)
	_, err := in.Evaluate(context.Background(), `(range (i 3) (print i))`)
	require.NoError(t, err)
	assert.Equal(t, "012", out.String())
}

func TestStatePersistsAcrossEvaluations(t *testing.T) {
	in := New(nil)
	ctx := context.Background()

	got, err := in.Evaluate(ctx, "(define (sq x) (* x x))")
	require.NoError(t, err)
	assert.Equal(t, session.NoValue(), got, "define has no value")

	got, err = in.Evaluate(ctx, "(sq 12)")
	require.NoError(t, err)
	assert.Equal(t, session.Value("144"), got)

	v, ok := in.Lookup("sq")
	require.True(t, ok)
	assert.Equal(t, "<fn sq>", v.String())
}

func TestRecursion(t *testing.T) {
	in := New(nil)
	ctx := context.Background()
	_, err := in.Evaluate(ctx, "(define (fact n) (if (<= n 1) 1 (* n (fact (- n 1)))))")
	require.NoError(t, err)
	got, err := in.Evaluate(ctx, "(fact 10)")
	require.NoError(t, err)
	assert.Equal(t, session.Value("3628800"), got)

	_, err = in.Evaluate(ctx, "(define (loop n) (loop n)) (loop 1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion too deep")
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantErr string
	}{
		{name: "unbound symbol", command: "(+ x 1)", wantErr: "unbound symbol: x"},
		{name: "division by zero", command: "(/ 1 0)", wantErr: "division by zero"},
		{name: "modulo by zero", command: "(% 1 0)", wantErr: "division by zero"},
		{name: "type error", command: `(+ 1 "a")`, wantErr: "+: expected number, got string"},
		{name: "not a function", command: "(1 2)", wantErr: "not a function: 1"},
		{name: "arity", command: "((fn (a) a))", wantErr: "expected 1 arguments, got 0"},
		{name: "missing paren", command: "(+ 1 2", wantErr: "missing ')'"},
		{name: "unexpected paren", command: ")", wantErr: "unexpected ')'"},
		{name: "unterminated string", command: `(print "abc`, wantErr: "unterminated string"},
		{name: "bad range", command: "(range i (println i))", wantErr: "range: expected"},
		{name: "bad if", command: "(if)", wantErr: "if: expected 2 or 3 arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).Evaluate(context.Background(), tt.command)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutputBeforeErrorIsKept(t *testing.T) {
	out := &bytes.Buffer{}
	_, err := New(out).Evaluate(context.Background(), `(println "before") (undefined)`)
	require.Error(t, err)
	assert.Equal(t, "before\n", out.String())
}

func TestRangeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Evaluate(ctx, `(range (i (0 1000000)) (print i))`)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSyntaxErrorType(t *testing.T) {
	_, err := Parse("(a (b)")
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 0, syn.Pos)
}
