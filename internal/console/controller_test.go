package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replconsole/internal/events"
	"replconsole/internal/session"
	"replconsole/internal/transcript"
)

type fakeSurface struct {
	text   string
	caret  int
	events []string
}

func (s *fakeSurface) Text() string { return s.text }
func (s *fakeSurface) SetText(text string) {
	s.text = text
	s.caret = 0
	s.events = append(s.events, "set")
}
func (s *fakeSurface) CaretToEnd() {
	s.caret = len(s.text)
	s.events = append(s.events, "caret")
}

// laggingViewport 模拟异步布局：每次 SetScrollPosition 之后内容还会再长 grow 行，
// 共长 pending 次。位置会被截断到已布局的范围。
type laggingViewport struct {
	extent  int
	pos     int
	grow    int
	pending int
	sets    int
}

func (v *laggingViewport) ScrollExtent() int   { return v.extent }
func (v *laggingViewport) ScrollPosition() int { return v.pos }
func (v *laggingViewport) SetScrollPosition(pos int) {
	v.sets++
	if pos > v.extent {
		pos = v.extent
	}
	v.pos = pos
	if v.pending > 0 {
		v.pending--
		v.extent += v.grow
	}
}

// lisp 风格的最小求值器：(+ a b) 返回和，(echo s) 输出 s 并无值，其余报错。
func evaluator(out io.Writer) (session.Evaluator, error) {
	return session.EvaluatorFunc(func(_ context.Context, cmd string) (session.Outcome, error) {
		switch {
		case cmd == "(+ 1 2)":
			return session.Value("3"), nil
		case strings.HasPrefix(cmd, "(echo "):
			fmt.Fprint(out, strings.TrimSuffix(strings.TrimPrefix(cmd, "(echo "), ")"))
			return session.NoValue(), nil
		case strings.TrimSpace(cmd) == "":
			return session.NoValue(), nil
		default:
			return session.Outcome{}, errors.New("unbound symbol: " + cmd)
		}
	}), nil
}

func newController(t *testing.T, vp Viewport) (*Controller, *fakeSurface) {
	t.Helper()
	s, err := session.New(evaluator, session.Options{})
	require.NoError(t, err)
	surface := &fakeSurface{}
	return New(s, surface, vp, Options{SettleDelay: time.Millisecond, MaxSettleAttempts: 5}), surface
}

func TestDispatchSubmit(t *testing.T) {
	c, _ := newController(t, &laggingViewport{})
	effects := c.Dispatch(context.Background(), Submit{Text: "(+ 1 2)"})

	assert.Equal(t, []Effect{RenderTranscript{}, Schedule{Event: ScrollSettle{}}}, effects)
	assert.Equal(t, []transcript.Entry{transcript.Prompt("(+ 1 2)"), transcript.Result("3")},
		c.Session().Store().Entries())
}

func TestDispatchSubmitFailure(t *testing.T) {
	c, _ := newController(t, nil)
	c.Dispatch(context.Background(), Submit{Text: "x"})
	assert.Equal(t, []transcript.Entry{transcript.Prompt("x"), transcript.Error("unbound symbol: x")},
		c.Session().Store().Entries())
}

func TestDispatchOutput(t *testing.T) {
	c, surface := newController(t, nil)
	effects := c.Dispatch(context.Background(), Output{Text: "hello\n"})
	assert.Equal(t, []Effect{RenderTranscript{}}, effects)
	assert.Equal(t, []transcript.Entry{transcript.Output("hello\n")}, c.Session().Store().Entries())
	assert.Empty(t, surface.events)
}

func TestDispatchRecall(t *testing.T) {
	c, surface := newController(t, nil)
	ctx := context.Background()
	for _, cmd := range []string{"(echo a\n)", "  ", "(+ 1 2)"} {
		c.Dispatch(ctx, Submit{Text: cmd})
	}

	effects := c.Dispatch(ctx, RecallPrevious{})
	assert.Equal(t, []Effect{RenderEditSurface{}}, effects)
	assert.Equal(t, "(+ 1 2)", surface.text)
	assert.Equal(t, len("(+ 1 2)"), surface.caret)
	assert.Equal(t, []string{"set", "caret"}, surface.events)

	c.Dispatch(ctx, RecallPrevious{})
	assert.Equal(t, "(echo a\n)", surface.text, "blank prompt skipped")

	assert.Nil(t, c.Dispatch(ctx, RecallPrevious{}), "holds at the earliest prompt")
	assert.Equal(t, "(echo a\n)", surface.text)

	c.Dispatch(ctx, RecallNext{})
	assert.Equal(t, "(+ 1 2)", surface.text)
	assert.Nil(t, c.Dispatch(ctx, RecallNext{}))
	assert.Equal(t, "(+ 1 2)", surface.text, "no snap back to the live line")
}

func TestDispatchRecallOnEmptyTranscript(t *testing.T) {
	c, surface := newController(t, nil)
	surface.text = "typing"
	assert.Nil(t, c.Dispatch(context.Background(), RecallPrevious{}))
	assert.Nil(t, c.Dispatch(context.Background(), RecallNext{}))
	assert.Equal(t, "typing", surface.text)
	assert.Empty(t, surface.events)
}

func TestScrollSettle(t *testing.T) {
	t.Run("settles immediately when layout is current", func(t *testing.T) {
		vp := &laggingViewport{extent: 10}
		c, _ := newController(t, vp)
		assert.Nil(t, c.Dispatch(context.Background(), ScrollSettle{}))
		assert.Equal(t, 10, vp.pos)
	})

	t.Run("reschedules while content grows", func(t *testing.T) {
		vp := &laggingViewport{extent: 10, grow: 3, pending: 2}
		c, _ := newController(t, vp)
		ctx := context.Background()

		var ev Event = ScrollSettle{}
		attempts := 0
		for ev != nil {
			attempts++
			effects := c.Dispatch(ctx, ev)
			ev = nil
			for _, eff := range effects {
				if s, ok := eff.(Schedule); ok {
					assert.Equal(t, time.Millisecond, s.Delay)
					ev = s.Event
				}
			}
		}
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 16, vp.pos)
		assert.Equal(t, vp.extent, vp.pos)
	})

	t.Run("gives up after the attempt bound", func(t *testing.T) {
		vp := &laggingViewport{extent: 0, grow: 1, pending: 1 << 30}
		c, _ := newController(t, vp)
		effects := c.Dispatch(context.Background(), ScrollSettle{Attempt: 3})
		require.Len(t, effects, 1)
		assert.Equal(t, Schedule{Delay: time.Millisecond, Event: ScrollSettle{Attempt: 4}}, effects[0])

		assert.Nil(t, c.Dispatch(context.Background(), ScrollSettle{Attempt: 4}))
	})

	t.Run("no viewport", func(t *testing.T) {
		c, _ := newController(t, nil)
		assert.Nil(t, c.Dispatch(context.Background(), ScrollSettle{}))
	})
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		name        string
		key         Key
		text        string
		wantEvents  []Event
		wantHandled bool
		wantText    string
	}{
		{name: "submit reads and clears", key: KeySubmit, text: "(+ 1 2)",
			wantEvents: []Event{ScrollSettle{}, Submit{Text: "(+ 1 2)"}}, wantHandled: true, wantText: ""},
		{name: "previous", key: KeyPrevious, text: "draft",
			wantEvents: []Event{ScrollSettle{}, RecallPrevious{}}, wantHandled: true, wantText: "draft"},
		{name: "next", key: KeyNext, text: "draft",
			wantEvents: []Event{ScrollSettle{}, RecallNext{}}, wantHandled: true, wantText: "draft"},
		{name: "other keys only settle", key: KeyOther, text: "draft",
			wantEvents: []Event{ScrollSettle{}}, wantHandled: false, wantText: "draft"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := &fakeSurface{text: tt.text}
			evs, handled := HandleKey(tt.key, surface)
			assert.Equal(t, tt.wantEvents, evs)
			assert.Equal(t, tt.wantHandled, handled)
			assert.Equal(t, tt.wantText, surface.text)
		})
	}
}

// syncViewport 让 Loop 的 goroutine 与测试 goroutine 可以同时访问视口。
type syncViewport struct {
	mu sync.Mutex
	vp *laggingViewport
}

func (v *syncViewport) ScrollExtent() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vp.ScrollExtent()
}

func (v *syncViewport) ScrollPosition() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vp.ScrollPosition()
}

func (v *syncViewport) SetScrollPosition(pos int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vp.SetScrollPosition(pos)
}

func (v *syncViewport) settled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vp.pending == 0 && v.vp.pos == v.vp.extent
}

type countingRenderer struct {
	transcript chan struct{}
	edits      int
}

func (r *countingRenderer) RenderTranscript()  { r.transcript <- struct{}{} }
func (r *countingRenderer) RenderEditSurface() { r.edits++ }

func TestLoopRunsScheduledSettles(t *testing.T) {
	vp := &syncViewport{vp: &laggingViewport{extent: 5, grow: 2, pending: 3}}
	s, err := session.New(evaluator, session.Options{})
	require.NoError(t, err)
	c := New(s, &fakeSurface{}, vp, Options{SettleDelay: time.Millisecond, MaxSettleAttempts: 10})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	inbox := events.NewInbox[Event](8)
	r := &countingRenderer{transcript: make(chan struct{}, 4)}

	done := make(chan error, 1)
	go func() { done <- Loop(ctx, c, inbox, r) }()

	require.NoError(t, inbox.Post(ctx, Submit{Text: "(+ 1 2)"}))
	select {
	case <-r.transcript:
	case <-ctx.Done():
		t.Fatal("timeout waiting for render")
	}

	require.Eventually(t, vp.settled, time.Second, 5*time.Millisecond)
	inbox.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 11, vp.ScrollPosition())
	assert.Equal(t, []transcript.Entry{transcript.Prompt("(+ 1 2)"), transcript.Result("3")}, s.Store().Entries())
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	c, _ := newController(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Loop(ctx, c, events.NewInbox[Event](1), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPendingTimersForgetFiredTimers(t *testing.T) {
	p := &pendingTimers{}
	var fired sync.WaitGroup
	fired.Add(500)
	for i := 0; i < 500; i++ {
		p.after(0, fired.Done)
	}
	fired.Wait()
	assert.Eventually(t, func() bool { return p.len() == 0 }, time.Second, 5*time.Millisecond)

	stopped := true
	p.after(time.Hour, func() { stopped = false })
	assert.Equal(t, 1, p.len())
	p.stopAll()
	assert.Equal(t, 0, p.len())
	assert.True(t, stopped)
}
