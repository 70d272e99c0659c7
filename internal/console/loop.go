package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"replconsole/internal/events"
)

// Renderer 执行 Render* 效果。
type Renderer interface {
	RenderTranscript()
	RenderEditSurface()
}

// Loop 从 inbox 中取事件交给控制器，并执行返回的效果。Schedule 通过
// time.AfterFunc 在延迟后投递回 inbox。inbox 关闭后返回 nil。
func Loop(ctx context.Context, c *Controller, inbox *events.Inbox[Event], r Renderer) error {
	timers := &pendingTimers{}
	defer timers.stopAll()

	for {
		ev, err := inbox.Receive(ctx)
		if errors.Is(err, events.ErrInboxClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, eff := range c.Dispatch(ctx, ev) {
			switch eff := eff.(type) {
			case RenderTranscript:
				if r != nil {
					r.RenderTranscript()
				}
			case RenderEditSurface:
				if r != nil {
					r.RenderEditSurface()
				}
			case Schedule:
				next := eff.Event
				timers.after(eff.Delay, func() {
					if err := inbox.Post(ctx, next); err != nil && !errors.Is(err, events.ErrInboxClosed) {
						log.Debugf("dropped scheduled %v: %v", next, err)
					}
				})
			}
		}
	}
}

// pendingTimers 只保存尚未触发的定时器，触发后即移除。
type pendingTimers struct {
	mu     sync.Mutex
	nextID int
	timers map[int]*time.Timer
}

func (p *pendingTimers) after(d time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timers == nil {
		p.timers = make(map[int]*time.Timer)
	}
	id := p.nextID
	p.nextID++
	p.timers[id] = time.AfterFunc(d, func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
		fn()
	})
}

func (p *pendingTimers) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

func (p *pendingTimers) stopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}
