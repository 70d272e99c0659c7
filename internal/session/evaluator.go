package session

import (
	"context"
	"io"
)

// Outcome 是一次成功求值的结果。HasValue 为 false 表示没有值（Success(None)）。
type Outcome struct {
	Value    string
	HasValue bool
}

// Value 构造带值的 Outcome。
func Value(v string) Outcome { return Outcome{Value: v, HasValue: true} }

// NoValue 构造无值的 Outcome。
func NoValue() Outcome { return Outcome{} }

// Evaluator 是外部求值器。返回的 error 即 Failure，其 Error() 文本进入转录。
// 求值期间写入的输出通过构造时传入的 sink 到达会话。
type Evaluator interface {
	Evaluate(ctx context.Context, command string) (Outcome, error)
}

// EvaluatorFunc 让函数实现 Evaluator。
type EvaluatorFunc func(ctx context.Context, command string) (Outcome, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, command string) (Outcome, error) {
	return f(ctx, command)
}

// Factory 用会话的输出 sink 构造求值器。
type Factory func(sink io.Writer) (Evaluator, error)
