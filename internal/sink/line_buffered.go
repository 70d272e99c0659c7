// Package sink turns the evaluator's raw output byte stream into discrete
// transcript output chunks.
package sink

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

// Emitter 接收一段已完成的输出文本。
type Emitter func(text string)

// Options 控制切分方式。
type Options struct {
	// SplitLines 为 true 时每个完整行单独发出；否则一次 Write 中截至最后
	// 一个换行符的全部内容作为一段发出。
	SplitLines bool
}

// LineBuffered 是行缓冲的 io.Writer。缓冲区在任意 Write 之后只保留最后一个
// 换行符之后的字节。
type LineBuffered struct {
	emit Emitter
	opts Options
	buf  []byte
}

func NewLineBuffered(emit Emitter, opts Options) *LineBuffered {
	if emit == nil {
		emit = func(string) {}
	}
	return &LineBuffered{emit: emit, opts: opts}
}

// Write 永不失败，总是报告全部字节已接收。
func (w *LineBuffered) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	i := bytes.LastIndexByte(w.buf, '\n')
	if i < 0 {
		return len(p), nil
	}
	complete := w.buf[:i+1]
	if w.opts.SplitLines {
		for len(complete) > 0 {
			n := bytes.IndexByte(complete, '\n')
			w.emit(decode(complete[:n+1]))
			complete = complete[n+1:]
		}
	} else {
		w.emit(decode(complete))
	}
	w.buf = append(w.buf[:0], w.buf[i+1:]...)
	return len(p), nil
}

// Flush 发出剩余的全部字节（即使没有换行符）并清空缓冲；缓冲为空时什么都不做。
func (w *LineBuffered) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	text := decode(w.buf)
	w.buf = w.buf[:0]
	w.emit(text)
	return nil
}

// Buffered 返回尚未发出的字节数。
func (w *LineBuffered) Buffered() int {
	return len(w.buf)
}

// decode 宽松解码：非法序列替换为 U+FFFD。
func decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("\uFFFD")))
	}
	return string(out)
}
