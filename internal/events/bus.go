package events

import (
	"sync"

	"replconsole/internal/logger"
	"replconsole/internal/transcript"
)

// log 复用全局 logger，标记事件组件。
var log = logger.Named("events")

// Appended 是一条刚追加的转录条目及其在 store 中的下标。
type Appended struct {
	Index int
	Entry transcript.Entry
}

// Bus 广播新追加的转录条目。
//
// Subscribe 得到有界通道，慢订阅者会丢弃条目，只适合把条目当唤醒信号、
// 再回读 store 的订阅者。SubscribeAll 得到无损的订阅，条目在订阅者自己的
// 队列里排队，适合日志、历史文件这类持久化订阅者。Publish 从不阻塞。
type Bus struct {
	mu       sync.Mutex
	lossy    []chan Appended
	lossless []*queue
	buffer   int
	dropped  int
	closed   bool
}

// NewBus 创建总线，buffer 是每个有界订阅者的缓存大小。
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 128
	}
	return &Bus{buffer: buffer}
}

// Subscribe 订阅有界条目流。通道会在 Close 时关闭。
func (b *Bus) Subscribe() <-chan Appended {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return closedChan()
	}
	ch := make(chan Appended, b.buffer)
	b.lossy = append(b.lossy, ch)
	return ch
}

// SubscribeAll 订阅无损条目流。Close 之后已排队的条目仍会送达，然后通道关闭。
func (b *Bus) SubscribeAll() <-chan Appended {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return closedChan()
	}
	q := newQueue()
	b.lossless = append(b.lossless, q)
	go q.pump()
	return q.out
}

func (b *Bus) Publish(index int, entry transcript.Entry) {
	ev := Appended{Index: index, Entry: entry}
	var drops []int

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	for _, q := range b.lossless {
		q.push(ev)
	}
	for i, ch := range b.lossy {
		select {
		case ch <- ev:
		default:
			b.dropped++
			drops = append(drops, i)
		}
	}
	b.mu.Unlock()

	for _, i := range drops {
		log.WithField("subscriber", i).Debugf("dropped %s entry %d for slow subscriber", entry.Kind, index)
	}
}

// Dropped 返回有界订阅者累计丢弃的次数。
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.lossy {
		close(ch)
	}
	for _, q := range b.lossless {
		q.close()
	}
	b.lossy = nil
	b.lossless = nil
	b.closed = true
}

func closedChan() <-chan Appended {
	ch := make(chan Appended)
	close(ch)
	return ch
}

// queue 是无界 FIFO：push 不阻塞，pump 按顺序转发到 out。
type queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Appended
	closed  bool
	out     chan Appended
}

func newQueue() *queue {
	q := &queue{out: make(chan Appended)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(ev Appended) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *queue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			q.out <- ev
		}
	}
}
