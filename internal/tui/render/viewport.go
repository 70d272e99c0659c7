package render

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// TranscriptViewport 包装 bubbles viewport，记录上次的行以跳过无变化的更新，
// 并以行号暴露滚动范围与位置。
type TranscriptViewport struct {
	viewport.Model
	lastLines []string
}

func NewTranscriptViewport(width, height int) TranscriptViewport {
	return TranscriptViewport{Model: viewport.New(width, height)}
}

// Resize 更新宽高；宽度变化时清空缓存，强制下次全量更新。
func (v *TranscriptViewport) Resize(width, height int) {
	if v.Width != width {
		v.lastLines = nil
	}
	v.Width = width
	v.Height = height
}

// HandleUpdate 代理 bubbles 的 Update，保持内部状态。
func (v *TranscriptViewport) HandleUpdate(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	v.Model, cmd = v.Model.Update(msg)
	return cmd
}

// SetLines 更新内容。原本在底部时保持贴底。返回内容是否变化。
func (v *TranscriptViewport) SetLines(lines []string) bool {
	if v.lastLines != nil && slices.Equal(lines, v.lastLines) {
		return false
	}
	stickToBottom := v.AtBottom()
	v.lastLines = append([]string{}, lines...)
	v.SetContent(strings.Join(lines, "\n"))
	if stickToBottom {
		v.GotoBottom()
	}
	return true
}

// ScrollExtent 返回已布局内容能到达的最大 YOffset。
func (v *TranscriptViewport) ScrollExtent() int {
	return max(0, v.TotalLineCount()-v.Height)
}

func (v *TranscriptViewport) ScrollPosition() int {
	return v.YOffset
}

// SetScrollPosition 由 bubbles 截断到合法范围。
func (v *TranscriptViewport) SetScrollPosition(pos int) {
	v.SetYOffset(pos)
}
