package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	tuirender "replconsole/internal/tui/render"
	"replconsole/internal/transcript"
)

// Scrollback 把完成的转录条目追加写到终端的自然滚动缓冲（或任意 io.Writer）。
// 输出条目按原样写出，其余条目按转录格式渲染。
type Scrollback struct {
	w       io.Writer
	width   int
	styled  bool
	midLine bool
}

type ScrollbackOptions struct {
	Writer io.Writer
	Width  int
	// Styled 为 true 时保留 lipgloss 样式。
	Styled bool
}

func NewScrollback(opts ScrollbackOptions) *Scrollback {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	return &Scrollback{w: w, width: width, styled: opts.Styled}
}

func (s *Scrollback) SetWidth(width int) {
	if s == nil {
		return
	}
	if width > 0 {
		s.width = width
	}
}

func (s *Scrollback) Width() int {
	if s == nil {
		return 0
	}
	return s.width
}

// AppendEntry 写出一个条目。上一段输出没有以换行结束时先补一个换行。
func (s *Scrollback) AppendEntry(e transcript.Entry) {
	if s == nil || s.w == nil {
		return
	}
	if e.Kind == transcript.KindOutput {
		if e.Text == "" {
			return
		}
		fmt.Fprint(s.w, e.Text)
		s.midLine = !strings.HasSuffix(e.Text, "\n")
		return
	}
	if s.midLine {
		fmt.Fprintln(s.w)
		s.midLine = false
	}
	lines := tuirender.Entry(e, s.width)
	var out []string
	if s.styled {
		out = tuirender.LinesToStrings(lines)
	} else {
		out = tuirender.LinesToPlainStrings(lines)
	}
	for _, line := range out {
		fmt.Fprintln(s.w, line)
	}
}

// Finish 在结束前补齐未结束的输出行。
func (s *Scrollback) Finish() {
	if s != nil && s.midLine {
		fmt.Fprintln(s.w)
		s.midLine = false
	}
}
