// Package session owns one console session: the evaluator handle, the
// transcript, the output sink and the prompt history cursor.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"replconsole/internal/events"
	"replconsole/internal/history"
	"replconsole/internal/logger"
	"replconsole/internal/sink"
	"replconsole/internal/transcript"
)

var log = logger.Named("session")

// Options 配置会话。
type Options struct {
	Sink sink.Options
	// Bus 非空时，每条追加的条目都会被发布。
	Bus *events.Bus
}

type Session struct {
	id        string
	store     *transcript.Store
	sink      *sink.LineBuffered
	navigator *history.Navigator
	evaluator Evaluator
	bus       *events.Bus
}

// New 创建会话，并用 factory 以会话的 sink 构造求值器。
func New(factory Factory, opts Options) (*Session, error) {
	if factory == nil {
		return nil, errors.New("session: nil evaluator factory")
	}
	s := &Session{
		id:    uuid.NewString(),
		store: transcript.NewStore(),
		bus:   opts.Bus,
	}
	s.sink = sink.NewLineBuffered(s.AppendOutput, opts.Sink)
	s.navigator = history.NewNavigator(s.store)

	ev, err := factory(s.sink)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, errors.New("session: factory returned nil evaluator")
	}
	s.evaluator = ev
	return s, nil
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) Store() *transcript.Store      { return s.store }
func (s *Session) Navigator() *history.Navigator { return s.navigator }

// Submit 记录 prompt，同步求值，冲刷 sink，再记录结果或错误。
// 求值期间 sink 发出的输出实时追加，因此位于 Result/Error 之前。
func (s *Session) Submit(ctx context.Context, text string) {
	start := time.Now()
	s.append(transcript.Prompt(text))

	outcome, err := s.evaluator.Evaluate(ctx, text)
	_ = s.sink.Flush()

	kind := "none"
	switch {
	case err != nil:
		kind = "error"
		s.append(transcript.Error(err.Error()))
	case outcome.HasValue:
		kind = "result"
		s.append(transcript.Result(outcome.Value))
	}
	s.navigator.Reset()

	log.WithFields(logger.Fields{
		"session_id":  s.id,
		"command_len": len(text),
		"outcome":     kind,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("command evaluated")
}

// AppendOutput 追加一段输出文本。sink 在求值期间调用它；控制器的 Output
// 事件也走这里。
func (s *Session) AppendOutput(text string) {
	s.append(transcript.Output(text))
}

func (s *Session) append(e transcript.Entry) {
	idx := s.store.Append(e)
	if s.bus != nil {
		s.bus.Publish(idx, e)
	}
}
