// Package evaluator builds the console's evaluators by name.
package evaluator

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"replconsole/internal/config"
	"replconsole/internal/evaluator/lisp"
	"replconsole/internal/evaluator/shell"
	"replconsole/internal/session"
)

// ErrUnknownKind 表示配置中的求值器名称不存在。
var ErrUnknownKind = errors.New("unknown evaluator kind")

const (
	KindLisp  = "lisp"
	KindShell = "shell"
)

type builder func(sink io.Writer, cfg config.Config) session.Evaluator

var builders = map[string]builder{
	KindLisp: func(sink io.Writer, _ config.Config) session.Evaluator {
		return lisp.New(sink)
	},
	KindShell: func(sink io.Writer, cfg config.Config) session.Evaluator {
		return shell.New(sink, shell.Options{Shell: cfg.Shell, Timeout: cfg.ShellTimeout()})
	},
}

// Kinds 返回已注册的求值器名称（排序后）。
func Kinds() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New 按名称构造求值器，输出写入 sink。
func New(kind string, sink io.Writer, cfg config.Config) (session.Evaluator, error) {
	b, ok := builders[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownKind, kind, strings.Join(Kinds(), ", "))
	}
	return b(sink, cfg), nil
}

// Factory 返回供 session.New 使用的构造函数。
func Factory(kind string, cfg config.Config) session.Factory {
	return func(sink io.Writer) (session.Evaluator, error) {
		return New(kind, sink, cfg)
	}
}
