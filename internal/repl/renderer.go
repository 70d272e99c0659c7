package repl

import (
	"sync"

	"replconsole/internal/events"
	"replconsole/internal/transcript"
)

// Renderer 把会话转录增量写到 Scrollback。总线上的条目只用作唤醒信号，
// 实际内容从 store 读取，所以总线丢弃条目不会漏打印。
type Renderer struct {
	mu         sync.Mutex
	store      *transcript.Store
	scrollback *Scrollback
	next       int
	echo       bool
}

type RendererOptions struct {
	Store      *transcript.Store
	Scrollback *Scrollback
	// EchoPrompts 控制是否打印 prompt 条目。交互终端里用户已经看到了输入。
	EchoPrompts bool
}

func NewRenderer(opts RendererOptions) *Renderer {
	return &Renderer{
		store:      opts.Store,
		scrollback: opts.Scrollback,
		next:       opts.Store.Len(),
		echo:       opts.EchoPrompts,
	}
}

// Watch 在 wake 上的每次通知后刷新，直到 wake 关闭或 stop 关闭。
func (r *Renderer) Watch(wake <-chan events.Appended, stop <-chan struct{}) {
	for {
		select {
		case _, ok := <-wake:
			if !ok {
				r.Flush()
				return
			}
			r.Flush()
		case <-stop:
			return
		}
	}
}

// Flush 写出自上次以来新增的全部条目，返回写出的条数。
func (r *Renderer) Flush() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for ; r.next < r.store.Len(); r.next++ {
		e, ok := r.store.At(r.next)
		if !ok {
			break
		}
		n++
		if e.Kind == transcript.KindPrompt && !r.echo {
			continue
		}
		r.scrollback.AppendEntry(e)
	}
	return n
}

// RenderTranscript 实现 console.Renderer。
func (r *Renderer) RenderTranscript() { r.Flush() }

// RenderEditSurface 在行模式下没有可重绘的编辑区。
func (r *Renderer) RenderEditSurface() {}

// Finish 写出剩余条目并结束最后一行。
func (r *Renderer) Finish() {
	r.Flush()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollback.Finish()
}
