// Package console is the event-driven front end of a session: it turns input
// events into session and history calls and keeps the edit surface and the
// viewport in step with the transcript.
package console

import (
	"context"
	"time"

	"replconsole/internal/logger"
	"replconsole/internal/session"
)

var log = logger.Named("console")

// 默认的滚动收敛参数。
const (
	DefaultSettleDelay       = 30 * time.Millisecond
	DefaultMaxSettleAttempts = 20
)

// EditSurface 是可编辑的输入区。
type EditSurface interface {
	Text() string
	SetText(text string)
	CaretToEnd()
}

// Viewport 是转录视口。ScrollExtent 是当前已布局内容可到达的最底部位置；
// SetScrollPosition 可能被截断到已布局的范围。
type Viewport interface {
	ScrollExtent() int
	ScrollPosition() int
	SetScrollPosition(pos int)
}

type Options struct {
	SettleDelay       time.Duration
	MaxSettleAttempts int
}

func (o Options) withDefaults() Options {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.MaxSettleAttempts <= 0 {
		o.MaxSettleAttempts = DefaultMaxSettleAttempts
	}
	return o
}

// Controller 是单线程的 reducer：只能在同一个逻辑线程上调用 Dispatch。
type Controller struct {
	session  *session.Session
	surface  EditSurface
	viewport Viewport
	opts     Options
}

func New(s *session.Session, surface EditSurface, viewport Viewport, opts Options) *Controller {
	return &Controller{
		session:  s,
		surface:  surface,
		viewport: viewport,
		opts:     opts.withDefaults(),
	}
}

func (c *Controller) Session() *session.Session { return c.session }

// Dispatch 处理一个事件并返回前端需要执行的效果。
func (c *Controller) Dispatch(ctx context.Context, ev Event) []Effect {
	switch ev := ev.(type) {
	case Submit:
		c.session.Submit(ctx, ev.Text)
		return []Effect{RenderTranscript{}, Schedule{Event: ScrollSettle{}}}
	case Output:
		c.session.AppendOutput(ev.Text)
		return []Effect{RenderTranscript{}}
	case RecallPrevious:
		text, ok := c.session.Navigator().RecallPrevious()
		return c.recalled(text, ok)
	case RecallNext:
		text, ok := c.session.Navigator().RecallNext()
		return c.recalled(text, ok)
	case ScrollSettle:
		return c.settle(ev)
	default:
		log.Warnf("unhandled console event %T", ev)
		return nil
	}
}

func (c *Controller) recalled(text string, ok bool) []Effect {
	if !ok {
		return nil
	}
	c.surface.SetText(text)
	c.surface.CaretToEnd()
	return []Effect{RenderEditSurface{}}
}

// settle 把视口移到底部，并在内容仍在增长时稍后重试。
func (c *Controller) settle(ev ScrollSettle) []Effect {
	if c.viewport == nil {
		return nil
	}
	target := c.viewport.ScrollExtent()
	c.viewport.SetScrollPosition(target)
	if c.viewport.ScrollPosition() == target && c.viewport.ScrollExtent() == target {
		return nil
	}
	next := ev.Attempt + 1
	if next >= c.opts.MaxSettleAttempts {
		log.WithFields(logger.Fields{
			"attempts": next,
			"target":   target,
			"position": c.viewport.ScrollPosition(),
		}).Warn("scroll did not settle")
		return nil
	}
	return []Effect{Schedule{Delay: c.opts.SettleDelay, Event: ScrollSettle{Attempt: next}}}
}
