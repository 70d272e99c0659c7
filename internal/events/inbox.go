package events

import (
	"context"
	"errors"
	"sync"
)

// ErrInboxClosed 表示 inbox 已关闭，无法再投递或接收。
var ErrInboxClosed = errors.New("inbox closed")

// Inbox 是一个有界的事件队列。计时器、输入读取等 goroutine 通过它向
// 单线程的控制器投递事件。
type Inbox[T any] struct {
	mu     sync.RWMutex
	ch     chan T
	closed bool
	once   sync.Once
}

// NewInbox 创建 inbox，capacity 非正时使用 64。
func NewInbox[T any](capacity int) *Inbox[T] {
	if capacity <= 0 {
		capacity = 64
	}
	return &Inbox[T]{ch: make(chan T, capacity)}
}

// Post 投递事件；队列满时阻塞直到有空位或 ctx 取消。关闭后返回 ErrInboxClosed。
func (q *Inbox[T]) Post(ctx context.Context, ev T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrInboxClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- ev:
		return nil
	}
}

// Receive 读取一个事件；队列关闭且已排空时返回 ErrInboxClosed。
func (q *Inbox[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case ev, ok := <-q.ch:
		if !ok {
			return zero, ErrInboxClosed
		}
		return ev, nil
	}
}

// Len 返回当前排队数量。
func (q *Inbox[T]) Len() int {
	return len(q.ch)
}

// Close 停止接受新事件。已排队的事件仍可被 Receive 取走。
func (q *Inbox[T]) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}
