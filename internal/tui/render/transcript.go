package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"replconsole/internal/transcript"
)

var (
	promptPrefixStyle = lipgloss.NewStyle().Faint(true).Bold(true)
	promptIndentStyle = lipgloss.NewStyle().Faint(true)
	resultPrefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	outputStyle       = lipgloss.NewStyle().Faint(true)
)

// 各类条目的前缀。
const (
	PromptPrefix = "› "
	ResultPrefix = "⇒ "
	ErrorPrefix  = "! "
	indent       = "  "
)

// Entries 把转录条目按顺序渲染成行。
func Entries(entries []transcript.Entry, width int) []Line {
	out := []Line{}
	for _, e := range entries {
		out = append(out, Entry(e, width)...)
	}
	return out
}

// Entry 渲染单条条目。prompt/result 按词换行；error/output 保留原样空白。
func Entry(e transcript.Entry, width int) []Line {
	wrapWidth := width - 2
	if wrapWidth < 1 {
		wrapWidth = width
	}
	switch e.Kind {
	case transcript.KindPrompt:
		body := styledLines(wrapText(e.Text, wrapWidth), lipgloss.Style{})
		return PrefixLines(body, Span{Text: PromptPrefix, Style: promptPrefixStyle}, Span{Text: indent, Style: promptIndentStyle})
	case transcript.KindResult:
		body := styledLines(wrapText(e.Text, wrapWidth), lipgloss.Style{})
		return PrefixLines(body, Span{Text: ResultPrefix, Style: resultPrefixStyle}, Span{Text: indent})
	case transcript.KindError:
		body := styledLines(wrapVerbatim(strings.TrimRight(e.Text, "\n"), wrapWidth), errorStyle)
		return PrefixLines(body, Span{Text: ErrorPrefix, Style: errorStyle}, Span{Text: indent})
	case transcript.KindOutput:
		return styledLines(wrapVerbatim(strings.TrimSuffix(e.Text, "\n"), width), outputStyle)
	default:
		return styledLines(wrapText(e.Text, width), lipgloss.Style{})
	}
}

func styledLines(lines []string, style lipgloss.Style) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{Spans: []Span{{Text: l, Style: style}}})
	}
	return out
}
